package domain

// MacroRule binds a platform macro to the status that triggers it.
type MacroRule struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	TriggerStatus TicketStatus `json:"trigger_status"`
}

// MacroTable is an ordered rule list; lookups return the first match.
type MacroTable []MacroRule

// DefaultMacroTable is the client-communication automation applied to MFL tickets.
var DefaultMacroTable = MacroTable{
	{ID: 22998852760215, Name: "MFL::Client Communication:: Thank you for Submitting", TriggerStatus: TicketStatusNew},
	{ID: 22998852854167, Name: "MFL::Client Communication::Tier 1 Carrier", TriggerStatus: TicketStatusOpen},
	{ID: 22998828412695, Name: "MFL::Client Communication:: Successful Phone Number Takedown", TriggerStatus: TicketStatusSolved},
}

// ForStatus returns the first rule triggered by status.
func (t MacroTable) ForStatus(status TicketStatus) (MacroRule, bool) {
	for _, rule := range t {
		if rule.TriggerStatus == status {
			return rule, true
		}
	}
	return MacroRule{}, false
}

// MacroApplication is the outcome of a successful macro apply. Status is
// empty when the macro does not set one.
type MacroApplication struct {
	Macro  MacroRule    `json:"macro"`
	Status TicketStatus `json:"status,omitempty"`
}
