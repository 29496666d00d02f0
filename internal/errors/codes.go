package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 쇼퍼 식별 (SHOPPER_) ====================
	ShopperRequired = "SHOPPER_REQUIRED" // 쇼퍼 ID 누락
	ShopperInvalid  = "SHOPPER_INVALID"  // 잘못된 쇼퍼 ID

	// ==================== 관리자 (ADMIN_) ====================
	AdminForbidden = "ADMIN_FORBIDDEN" // 관리자 키 불일치

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationRequired      = "VALIDATION_REQUIRED"       // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재

	// ==================== 카탈로그 (CATALOG_) ====================
	CatalogNotFound          = "CATALOG_NOT_FOUND"          // 상품 옵션 정보 없음
	CatalogConfiguration     = "CATALOG_CONFIGURATION"      // 판매 불가능한 옵션 구성
	CatalogUnsupportedFormat = "CATALOG_UNSUPPORTED_FORMAT" // 지원하지 않는 문서 형식

	// ==================== 옵션 선택 (VARIANT_) ====================
	VariantInvalidOption    = "VARIANT_INVALID_OPTION"    // 선택할 수 없는 옵션
	VariantUnknownDimension = "VARIANT_UNKNOWN_DIMENSION" // 없는 옵션 항목

	// ==================== 장바구니 (CART_) ====================
	CartIncompleteSpec = "CART_INCOMPLETE_SPEC" // 옵션 선택 미완료
	CartLineNotFound   = "CART_LINE_NOT_FOUND"  // 장바구니 항목 없음
	CartOutOfStock     = "CART_OUT_OF_STOCK"    // 품절

	// ==================== 쿠폰 (COUPON_) ====================
	CouponInvalid = "COUPON_INVALID" // 잘못된 쿠폰

	// ==================== 주문서 (SETTLEMENT_) ====================
	SettlementEmptySelection = "SETTLEMENT_EMPTY_SELECTION" // 선택된 상품 없음
	SettlementNotFound       = "SETTLEMENT_NOT_FOUND"       // 주문서 없음
	SettlementLineNotFound   = "SETTLEMENT_LINE_NOT_FOUND"  // 주문서 항목 없음
	SettlementClosed         = "SETTLEMENT_CLOSED"          // 이미 닫힌 주문서

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
