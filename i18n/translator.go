package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "path").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "invalid_enum":
			return "列挙型の値が不正です"
		case "invalid_literal":
			return "リテラル値が一致しません"
		case "unknown_variant":
			return "未知のバリアントです"
		case "overflow":
			return "数値が範囲外です"
		case "invalid_value":
			return "値が不正です"
		case "unsupported_shape":
			return "対応していない型構造です"
		case "union_ambiguous":
			return "ユニオンの候補を特定できません"
		case "assert_failed":
			return "アサーションに失敗しました"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required property missing"
		case "invalid_enum":
			return "invalid enum value"
		case "invalid_literal":
			return "literal value does not match"
		case "unknown_variant":
			return "unknown variant"
		case "overflow":
			return "number out of range"
		case "invalid_value":
			return "invalid value"
		case "unsupported_shape":
			return "unsupported type shape"
		case "union_ambiguous":
			return "union member cannot be determined"
		case "assert_failed":
			return "assertion failed"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
