package game

// View is a read-only snapshot of a session for rendering.
type View struct {
	Mode      Mode            `json:"mode"`
	Status    Status          `json:"status"`
	Rows      []Row           `json:"rows"`
	Active    string          `json:"active"`
	RowCount  int             `json:"rowCount"`
	MinRows   int             `json:"minRows"`
	MaxRows   int             `json:"maxRows"`
	Width     int             `json:"width"`
	WordIndex int             `json:"wordIndex"`
	Record    PlayerRecord    `json:"playerRecord"`
	FirstRun  bool            `json:"firstRun"`
	Keys      map[string]Mark `json:"keys"`
	Date      string          `json:"date,omitempty"`   // daily mode only
	Answer    string          `json:"answer,omitempty"` // resolved daily round only
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.refresh()
	v := View{
		Mode:      s.mode,
		Status:    s.status,
		Rows:      s.Rows(),
		Active:    s.Active(),
		RowCount:  s.rowCount,
		MinRows:   s.minRows,
		MaxRows:   s.maxRows,
		Width:     s.src.Width(),
		WordIndex: s.record.WordIndex,
		Record:    s.record.PlayerRecord,
		FirstRun:  s.firstRun,
		Keys:      s.KeyStates(),
	}
	if v.Rows == nil {
		v.Rows = []Row{}
	}
	if s.mode == ModeDaily {
		v.Date = s.src.Calendar().DateKey(s.clock())
		if s.status.Finished() {
			v.Answer = s.target
		}
	}
	return v
}
