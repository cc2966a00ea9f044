package shows

import "time"

type CreateShowRequest struct {
	Name       string    `json:"name" binding:"required,max=255"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	TotalSeats int       `json:"total_seats" binding:"required,min=1"`
}

type ShowListRequest struct {
	Page         int  `form:"page"`
	Limit        int  `form:"limit"`
	UpcomingOnly bool `form:"upcoming"`
}
