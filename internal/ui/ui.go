package ui

type UI interface {
	UpdateStatus(status string)
	SectionMedia(section int, url string)
	Log(msg string)
}

type SilentUI struct{}

func (s SilentUI) UpdateStatus(status string)         {}
func (s SilentUI) SectionMedia(section int, u string) {}
func (s SilentUI) Log(msg string)                     {}
