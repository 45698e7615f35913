package whatsapp

// Inbound webhook payload, as delivered by the WhatsApp Cloud API. Only the
// fields the intake pipeline reads are modeled.

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Contacts []Contact `json:"contacts"`
	Messages []Message `json:"messages"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	From        string       `json:"from"` // phone digits, the channel address
	ID          string       `json:"id"`   // wamid, used for idempotency
	Type        string       `json:"type"` // "text", "interactive", "image", ...
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string  `json:"type"` // "button_reply" or "list_reply"
	ButtonReply *Option `json:"button_reply,omitempty"`
	ListReply   *Option `json:"list_reply,omitempty"`
}

type Option struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Reply extracts the selected option from an interactive message.
func (m *Message) Reply() *Option {
	if m.Interactive == nil {
		return nil
	}
	if m.Interactive.ButtonReply != nil {
		return m.Interactive.ButtonReply
	}
	return m.Interactive.ListReply
}

// Outbound payloads.

type outboundText struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             outboundBody `json:"text"`
}

type outboundBody struct {
	Body string `json:"body"`
}

type outboundInteractive struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Interactive      interactiveBody `json:"interactive"`
}

type interactiveBody struct {
	Type   string             `json:"type"` // "button" or "list"
	Body   outboundBody       `json:"body"`
	Action *interactiveAction `json:"action,omitempty"`
}

type interactiveAction struct {
	Buttons  []button      `json:"buttons,omitempty"`
	Button   string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type button struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
