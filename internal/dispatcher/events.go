package dispatcher

// Event is one inbound user action. The concrete types are Command,
// CallbackPress and FreeText.
type Event interface {
	// EventID correlates log lines for one update. It may be empty.
	EventID() string
	From() int64
}

// Profile carries the platform's view of the sender, used on registration.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
}

// Command is a slash command. Name has no leading slash and no @bot suffix.
type Command struct {
	ID      string
	Name    string
	UserID  int64
	RawText string
	User    Profile
}

// CallbackPress is an inline keyboard button press. Data is the opaque token
// the button was built with.
type CallbackPress struct {
	ID     string
	Data   string
	UserID int64
}

// FreeText is a plain message that is not a command.
type FreeText struct {
	ID     string
	UserID int64
	Text   string
}

func (c Command) EventID() string       { return c.ID }
func (c Command) From() int64           { return c.UserID }
func (c CallbackPress) EventID() string { return c.ID }
func (c CallbackPress) From() int64     { return c.UserID }
func (f FreeText) EventID() string      { return f.ID }
func (f FreeText) From() int64          { return f.UserID }

// Reply is one outbound message. The concrete types are TextReply,
// MenuReply and EditReply.
type Reply interface {
	isReply()
}

// TextReply sends a new message.
type TextReply struct {
	Text string
}

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// MenuReply sends a new message with one button per row.
type MenuReply struct {
	Text    string
	Buttons []Button
}

// EditReply replaces the text of the message whose button was pressed.
type EditReply struct {
	Text string
}

func (TextReply) isReply() {}
func (MenuReply) isReply() {}
func (EditReply) isReply() {}
