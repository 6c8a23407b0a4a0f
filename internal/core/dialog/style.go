package dialog

// Kind selects the icon, palette and default title of a dialog
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Style is the visual treatment the client renders for a dialog kind
type Style struct {
	Icon       string `json:"icon"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
	Button     string `json:"button"`
}

var styles = map[Kind]Style{
	KindSuccess: {Icon: "check_circle", Background: "#dcfce7", Text: "#166534", Accent: "#22c55e", Button: "#16a34a"},
	KindError:   {Icon: "error", Background: "#fee2e2", Text: "#991b1b", Accent: "#ef4444", Button: "#dc2626"},
	KindWarning: {Icon: "warning", Background: "#ffedd5", Text: "#9a3412", Accent: "#f97316", Button: "#ea580c"},
	KindInfo:    {Icon: "info", Background: "#dbeafe", Text: "#1e40af", Accent: "#3b82f6", Button: "#2563eb"},
}

var titles = map[Kind]string{
	KindSuccess: "Berhasil",
	KindError:   "Terjadi Kesalahan",
	KindWarning: "Konfirmasi",
	KindInfo:    "Informasi",
}

// Default button labels
const (
	DefaultConfirmText = "OK"
	DefaultCancelText  = "Batal"
)

// StyleFor returns the style of k. Unknown kinds get the info style.
func StyleFor(k Kind) Style {
	if s, ok := styles[k]; ok {
		return s
	}
	return styles[KindInfo]
}

// DefaultTitle returns the heading used when no title is given
func DefaultTitle(k Kind) string {
	if t, ok := titles[k]; ok {
		return t
	}
	return titles[KindInfo]
}

// Valid reports whether k is one of the four known kinds
func (k Kind) Valid() bool {
	_, ok := styles[k]
	return ok
}
