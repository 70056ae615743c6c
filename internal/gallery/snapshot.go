package gallery

import "pairing-gallery/internal/model"

// Snapshot is a copy of everything the presentation layer needs to render one frame.
type Snapshot struct {
	SessionID string `json:"session"`
	View      string `json:"view"`

	Index       int             `json:"index"`
	Length      int             `json:"length"`
	Current     *model.Painting `json:"current,omitempty"`
	HasNext     bool            `json:"hasNext"`
	HasPrevious bool            `json:"hasPrevious"`

	IndexLoading  bool  `json:"indexLoading"`
	Populating    bool  `json:"populating"`
	CacheComplete bool  `json:"cacheComplete"`
	FailedPages   []int `json:"failedPages,omitempty"`

	DetailStatus  string             `json:"detailStatus"`
	DetailLoading bool               `json:"detailLoading"`
	DetailID      int                `json:"detailId,omitempty"`
	Detail        *model.Painting    `json:"detail,omitempty"`
	ImageURL      string             `json:"imageUrl,omitempty"`
	Groups        []model.BasisGroup `json:"groups,omitempty"`
	Pairing       *model.Pairing     `json:"pairing,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:     s.id,
		View:          s.view.String(),
		Index:         s.index,
		Length:        len(s.cache),
		HasNext:       s.HasNext(),
		HasPrevious:   s.HasPrevious(),
		IndexLoading:  s.IndexLoading(),
		Populating:    s.populating,
		CacheComplete: s.complete,
		FailedPages:   s.FailedPages(),
		DetailStatus:  s.detailStatus.String(),
		DetailLoading: s.DetailLoading(),
		DetailID:      s.detailID,
		ImageURL:      s.imageURL,
		Groups:        s.Groups(),
	}
	if p, ok := s.Current(); ok {
		snap.Current = &p
	}
	if d, ok := s.Detail(); ok {
		snap.Detail = &d
	}
	if pr, ok := s.Pairing(); ok {
		snap.Pairing = &pr
	}
	return snap
}
