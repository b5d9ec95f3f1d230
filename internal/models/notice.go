package models

// Notice variants.
const (
	NoticeDefault     = "default"
	NoticeDestructive = "destructive"
)

// Notice is a transient message shown to the actor alongside a page.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"`
}

// Info builds a default notice.
func Info(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeDefault}
}

// Alert builds a destructive notice.
func Alert(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeDestructive}
}
