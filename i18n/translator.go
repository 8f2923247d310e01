package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var messages = map[string]map[string]string{
	"en": {
		"schema_compilation": "type cannot be compiled into a schema",
		"reserved_field":     "field name is reserved for the type tag",
		"bad_constraint":     "constraint argument is invalid",
		"unknown_type":       "unknown type",
		"empty_scope":        "no scope layer to pop",
		"missing_type_tag":   "type tag required for an abstract type",
		"type_mismatch":      "type tag does not match the target type",
		"ambiguous_type":     "type tag names an abstract type",
		"unknown_field":      "unknown field",
		"required":           "required field missing",
		"invalid_type":       "invalid type",
		"too_small":          "too small",
		"too_big":            "too big",
		"too_short":          "too short",
		"too_long":           "too long",
		"pattern":            "does not match pattern",
		"invalid_enum":       "value not allowed",
		"invalid_const":      "value differs from the constant",
		"not_multiple":       "not a multiple",
		"not_unique":         "items not unique",
		"union_no_match":     "no union variant matched",
		"build_failed":       "build failed",
		"duplicate_key":      "duplicate key",
		"too_deep":           "nesting too deep",
		"parse_error":        "parse error",
	},
	"ja": {
		"schema_compilation": "スキーマにコンパイルできない型です",
		"reserved_field":     "型タグ用に予約されたフィールド名です",
		"bad_constraint":     "制約の引数が不正です",
		"unknown_type":       "未知の型です",
		"empty_scope":        "取り出せるスコープ層がありません",
		"missing_type_tag":   "抽象型には型タグが必要です",
		"type_mismatch":      "型タグが対象の型と一致しません",
		"ambiguous_type":     "型タグが抽象型を指しています",
		"unknown_field":      "未知のフィールドです",
		"required":           "必須フィールドが不足しています",
		"invalid_type":       "型が不正です",
		"too_small":          "小さすぎます",
		"too_big":            "大きすぎます",
		"too_short":          "短すぎます",
		"too_long":           "長すぎます",
		"pattern":            "パターンに一致しません",
		"invalid_enum":       "許可されていない値です",
		"invalid_const":      "定数と一致しません",
		"not_multiple":       "倍数ではありません",
		"not_unique":         "要素が重複しています",
		"union_no_match":     "一致するユニオンの候補がありません",
		"build_failed":       "構築に失敗しました",
		"duplicate_key":      "キーが重複しています",
		"too_deep":           "ネストが深すぎます",
		"parse_error":        "解析エラー",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	if msg, ok := messages[t.lang][code]; ok {
		return msg
	}
	if msg, ok := messages["en"][code]; ok {
		return msg
	}
	return code
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
