package chat

type PostMessageCommand struct {
	Chat    ChatID      `validate:"required"`
	Sender  string      `validate:"required"`
	Type    MessageType `validate:"required,oneof=text location picture"`
	Content string      `validate:"required,max=4096"`
}
