package i18n

import "sync/atomic"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "type_mismatch":
			return "型が一致しません"
		case "out_of_range":
			return "値が範囲外です"
		case "invalid_enum":
			return "列挙値が不正です"
		case "invalid_format":
			return "形式が不正です"
		case "malformed_token":
			return "JSON の構文が不正です"
		case "duplicate_key":
			return "キーが重複しています"
		case "max_depth":
			return "ネストが深すぎます"
		case "too_large":
			return "入力が大きすぎます"
		case "duplicate_binding":
			return "型はすでに登録されています"
		case "unsupported_direction":
			return "この方向の変換には対応していません"
		}
	default: // "en"
		switch code {
		case "type_mismatch":
			return "type mismatch"
		case "out_of_range":
			return "value out of range"
		case "invalid_enum":
			return "value is not a member of the enum"
		case "invalid_format":
			return "invalid format"
		case "malformed_token":
			return "malformed JSON"
		case "duplicate_key":
			return "duplicate key"
		case "max_depth":
			return "max depth exceeded"
		case "too_large":
			return "input too large"
		case "duplicate_binding":
			return "type already bound"
		case "unsupported_direction":
			return "binding does not support this direction"
		}
	}
	return code
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
