package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// BlockCount returns the number of blocks in the view.
func BlockCount(m Model) int {
	return len(m.blocks)
}
