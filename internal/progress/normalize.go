package progress

import "strings"

// Status tags used in place of pictographic markers.
const (
	TagOK       = "[OK]"
	TagError    = "[ERROR]"
	TagWarning  = "[WARNING]"
	TagStart    = "[START]"
	TagDownload = "[DOWNLOAD]"
	TagInstall  = "[INSTALL]"
	TagWait     = "[WAIT]"
	TagInfo     = "[INFO]"
)

var emojiTags = strings.NewReplacer(
	"✅", TagOK,
	"❌", TagError,
	"⚠️", TagWarning,
	"⚠", TagWarning,
	"🚀", TagStart,
	"📥", TagDownload,
	"⬇️", TagDownload,
	"📦", TagInstall,
	"⏳", TagWait,
	"🔄", TagWait,
	"ℹ️", TagInfo,
	"🔍", TagInfo,
	"🧠", TagInfo,
	"🔥", TagInfo,
)

// Normalize replaces status emoji with bracket tags so messages render on
// any terminal or log sink.
func Normalize(msg string) string {
	return strings.TrimSpace(emojiTags.Replace(msg))
}

// Normalizing wraps r so every message passes through Normalize first.
func Normalizing(r Reporter) Reporter {
	r = OrNop(r)
	return Func(func(msg string) { r.Report(Normalize(msg)) })
}
