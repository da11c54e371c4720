package service

import (
	"goalpath_backend/internal/util"
	"time"
)

// Clock 提供当前时间，测试中替换为固定时钟
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回使用系统时间的时钟
func SystemClock() Clock {
	return systemClock{}
}

// Calendar 把时间点换算为配置时区下的日历日（YYYY-MM-DD）
type Calendar struct {
	Clock    Clock
	Location *time.Location
}

func NewCalendar(clock Clock, loc *time.Location) *Calendar {
	if clock == nil {
		clock = SystemClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{Clock: clock, Location: loc}
}

func (c *Calendar) Now() time.Time {
	return c.Clock.Now().In(c.Location)
}

// Today 当前日历日
func (c *Calendar) Today() string {
	return c.DayOf(c.Clock.Now())
}

// DayOf 某个时间点所在的日历日
func (c *Calendar) DayOf(t time.Time) string {
	return t.In(c.Location).Format(util.DateFormat)
}
