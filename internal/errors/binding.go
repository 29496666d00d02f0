package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// BindingFields 요청 바인딩 실패를 필드별 메시지로 변환
// 필드 이름은 JSON 키 형식(snake_case)으로 반환됨
func BindingFields(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fe := range validationErrs {
			fields[snakeCase(fe.Field())] = fieldMessage(fe.Tag())
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields[typeErr.Field] = "형식이 올바르지 않습니다"
		return fields
	}

	fields["body"] = "요청 본문을 읽을 수 없습니다"
	return fields
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "필수 항목입니다"
	case "min", "gte", "gt":
		return "허용 범위보다 작습니다"
	case "max", "lte", "lt":
		return "허용 범위보다 큽니다"
	default:
		return "값이 올바르지 않습니다"
	}
}

// ShopperID -> shopper_id
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
