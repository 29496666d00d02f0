package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/internal/engine/settlement"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
	Status  int    // HTTP 상태 코드
}

// 도메인 에러 → 응답 매핑. 먼저 매칭되는 항목이 우선
var knownErrors = []struct {
	target error
	info   ErrorInfo
}{
	{variant.ErrUnknownDimension, ErrorInfo{VariantUnknownDimension, "존재하지 않는 옵션 항목입니다", http.StatusBadRequest}},
	{variant.ErrInvalidOption, ErrorInfo{VariantInvalidOption, "선택할 수 없는 옵션입니다", http.StatusBadRequest}},
	{cart.ErrIncompleteSpec, ErrorInfo{CartIncompleteSpec, "옵션을 모두 선택해주세요", http.StatusUnprocessableEntity}},
	{cart.ErrLineNotFound, ErrorInfo{CartLineNotFound, "장바구니 항목을 찾을 수 없습니다", http.StatusNotFound}},
	{service.ErrOutOfStock, ErrorInfo{CartOutOfStock, "품절된 상품입니다", http.StatusConflict}},
	{settlement.ErrEmptySelection, ErrorInfo{SettlementEmptySelection, "주문할 상품을 선택해주세요", http.StatusUnprocessableEntity}},
	{settlement.ErrLineNotFound, ErrorInfo{SettlementLineNotFound, "주문서 항목을 찾을 수 없습니다", http.StatusNotFound}},
	{settlement.ErrSessionClosed, ErrorInfo{SettlementClosed, "이미 종료된 주문서입니다", http.StatusConflict}},
	{service.ErrSettlementNotFound, ErrorInfo{SettlementNotFound, "주문서를 찾을 수 없습니다", http.StatusNotFound}},
	{service.ErrCatalogNotFound, ErrorInfo{CatalogNotFound, "상품 옵션 정보를 찾을 수 없습니다", http.StatusNotFound}},
	{catalog.ErrConfiguration, ErrorInfo{CatalogConfiguration, "판매할 수 없는 옵션 구성입니다", http.StatusUnprocessableEntity}},
	{service.ErrUnsupportedCatalogFormat, ErrorInfo{CatalogUnsupportedFormat, "지원하지 않는 문서 형식입니다", http.StatusBadRequest}},
	{service.ErrInvalidCoupon, ErrorInfo{CouponInvalid, "쿠폰 정보가 올바르지 않습니다", http.StatusBadRequest}},
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
			Status:  http.StatusInternalServerError,
		}
	}

	// 1. 도메인 에러
	for _, known := range knownErrors {
		if errors.Is(err, known.target) {
			return known.info
		}
	}

	// 2. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
			Status:  http.StatusNotFound,
		}
	}

	errStrLower := strings.ToLower(err.Error())

	// 3. Unique constraint (PostgreSQL 23505, SQLite)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "이미 등록된 정보입니다",
			Status:  http.StatusConflict,
		}
	}

	// 4. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
			Status:  http.StatusBadGateway,
		}
	}

	// 5. 기본 내부 서버 오류
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
		Status:  http.StatusInternalServerError,
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "coupon") || strings.Contains(contextLower, "쿠폰"):
		return "쿠폰을 찾을 수 없습니다"
	case strings.Contains(contextLower, "catalog") || strings.Contains(contextLower, "상품"):
		return "상품을 찾을 수 없습니다"
	case strings.Contains(contextLower, "cart") || strings.Contains(contextLower, "장바구니"):
		return "장바구니 정보를 찾을 수 없습니다"
	default:
		return "요청한 정보를 찾을 수 없습니다"
	}
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "import") || strings.Contains(contextLower, "등록") {
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "수정") {
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "삭제") {
		return "삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "export") || strings.Contains(contextLower, "엑셀") {
		return "엑셀 파일 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}
