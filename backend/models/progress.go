package models

// SubmitResultBody is the wire body of POST /api/series/:id/submit. Precision
// and score are required, so absence must be distinguishable from zero.
type SubmitResultBody struct {
	Precision      *float64 `json:"precision"`
	Score          *int     `json:"score"`
	Duration       int      `json:"duration"`
	TotalImages    int      `json:"totalImages"`
	CorrectAnswers int      `json:"correctAnswers"`
}

// SubmitResultRequest is a submission with every required field present.
type SubmitResultRequest struct {
	Precision      float64 `json:"precision"`
	Score          int     `json:"score"`
	Duration       int     `json:"duration"`
	TotalImages    int     `json:"totalImages"`
	CorrectAnswers int     `json:"correctAnswers"`
}

type SubmitResultResponse struct {
	Message  string `json:"message"`
	SeriesID uint   `json:"seriesId"`
}

type JoinByCodeRequest struct {
	Code string `json:"code"`
}

type JoinSeriesResponse struct {
	Message  string `json:"message"`
	SeriesID uint   `json:"seriesId"`
	Title    string `json:"title"`
	Status   string `json:"status"`
}

type XpProgress struct {
	Level          int  `json:"level"`
	TotalXp        *int `json:"totalXp"`
	CurrentXp      int  `json:"currentXp"`
	XpForNextLevel int  `json:"xpForNextLevel"`
	Progress       int  `json:"progress"`
}

// WeeklyActivity counts sessions per weekday, keyed Mon..Sun.
type WeeklyActivity map[string]int
