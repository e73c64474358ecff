// Package transport implements the chat gateway: inbound update
// polling and the narrow message operations the dialogue engine
// invokes.
package transport

import "context"

// Update is one inbound event from the chat gateway. Exactly one of
// Message, EditedMessage and CallbackQuery is set.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is a chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// User identifies the sender of a message or callback.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Button is one inline keyboard button. Data is echoed back in the
// resulting CallbackQuery.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// Keyboard is an inline keyboard: rows of buttons.
type Keyboard [][]Button

// Row builds a single-row keyboard fragment.
func Row(buttons ...Button) []Button {
	return buttons
}

// Sender is the set of message operations the dialogue engine
// invokes on the chat gateway. EditMedia has a documented failure
// mode of timeout-without-delivery (ErrDeliveryTimeout), which
// callers handle by falling back to EditText.
type Sender interface {
	// SendText delivers a new message and returns its message id.
	SendText(ctx context.Context, chatID int64, text string, keyboard Keyboard) (int64, error)

	// EditText replaces the text and keyboard of an existing message.
	EditText(ctx context.Context, chatID, messageID int64, text string, keyboard Keyboard) error

	// EditMedia replaces an existing message with a photo plus
	// caption. Returns ErrDeliveryTimeout when the upload did not
	// complete within the configured media timeout.
	EditMedia(ctx context.Context, chatID, messageID int64, photo []byte, caption string, keyboard Keyboard) error

	// AnswerCallback acknowledges a callback query so the client
	// stops showing a progress indicator.
	AnswerCallback(ctx context.Context, callbackID string) error

	// DeleteMessage removes a message from the chat.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}
