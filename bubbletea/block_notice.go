package bubbletea

import tea "github.com/charmbracelet/bubbletea"

var _ Block = (*NoticeBlock)(nil)

// NoticeBlock renders a single informational line.
type NoticeBlock struct {
	text   string
	styles Styles
}

// NewNoticeBlock creates a NoticeBlock.
func NewNoticeBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, styles: styles}
}

func (b *NoticeBlock) Update(tea.Msg) (Block, tea.Cmd) { return b, nil }

func (b *NoticeBlock) View(width int) string {
	return b.styles.Accent.Render(Truncate(b.text, width))
}
