package gate

// Action describes the kind of operation a subject wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionList   Action = "list"

	// ActionConvert turns a quotation into an invoice.
	ActionConvert Action = "convert"
	// ActionTransition changes an invoice status.
	ActionTransition Action = "transition"
	ActionExport     Action = "export"
	ActionSend       Action = "send"
)
