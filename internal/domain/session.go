package domain

// Phase is the lifecycle position of a single translation attempt
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseRejected   Phase = "rejected"
	PhaseDispatched Phase = "dispatched"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Session is a copy of the interactive state owned by a session controller
type Session struct {
	IdentityID       string
	IdentityReady    bool
	InputText        string
	TranslatedText   string
	SourceLanguage   string
	TargetLanguage   string
	IsLoading        bool
	IsSpeaking       bool
	IsListening      bool
	ErrorMessage     string
	TranslationCount int
	Phase            Phase
}
