package vertex

import (
	"strings"
)

// The provider's safety refusals arrive as free-form English sentences with
// inconsistent vocabulary. Each known pattern maps to a fixed user-facing
// sentence so raw provider text never reaches a job's error_message.
var safetyPatterns = []struct {
	pattern string
	message string
}{
	{"usage guidelines", "입력하신 프롬프트가 Vertex AI 이용 정책을 위반하여 요청이 거부되었습니다."},
	{"could not be submitted", "입력하신 프롬프트가 정책에 의해 제출이 거부되었습니다."},
	{"raimediafiltered", "생성된 콘텐츠가 안전 정책(폭력, 선정성 등)에 의해 차단되었습니다."},
	{"safety", "안전 정책에 의해 요청이 차단되었습니다."},
	{"responsible ai", "AI 윤리 정책에 의해 요청이 차단되었습니다."},
	{"copyright", "저작권 관련 정책에 의해 차단되었습니다."},
	{"trademark", "상표권 관련 정책에 의해 차단되었습니다."},
	{"person", "특정 인물 생성이 정책에 의해 제한되었습니다."},
	{"child", "아동 관련 콘텐츠가 정책에 의해 차단되었습니다."},
	{"blocked", "콘텐츠 정책에 의해 차단되었습니다."},
}

const safetyRetryHint = " 프롬프트를 수정한 후 다시 시도해 주세요."

const defaultSafetyMessage = "생성된 콘텐츠가 안전 정책에 의해 차단되었습니다." + safetyRetryHint

// translateSafetyMessage returns the fixed user-facing sentence for a
// provider error that matches a safety pattern, or ok=false when the error
// is unrelated to content policy.
func translateSafetyMessage(errMsg string) (string, bool) {
	lower := strings.ToLower(errMsg)
	for _, entry := range safetyPatterns {
		if strings.Contains(lower, entry.pattern) {
			return entry.message + safetyRetryHint, true
		}
	}
	return "", false
}
