package alarm

import (
	"fmt"
	"time"

	"schedr/internal/models"
)

// UnassignedProject stands in for a schedule without a project name.
const UnassignedProject = "프로젝트 미지정"

const minuteLayout = "2006-01-02 15:04"

// DueMessage renders "{project}:{title}:{YYYY-MM-DD HH:MM}" using the
// schedule's alarm time, falling back to its due time, in loc.
func DueMessage(s models.Schedule, loc *time.Location) string {
	project := s.ProjectName
	if project == "" {
		project = UnassignedProject
	}
	at := s.AlarmTime
	if at == nil {
		at = s.DueTime
	}
	stamp := ""
	if at != nil {
		stamp = inLocation(*at, loc).Format(minuteLayout)
	}
	return fmt.Sprintf("%s:%s:%s", project, s.Title, stamp)
}

// MemoMessage announces that editor added a memo to the schedule.
func MemoMessage(editorName, title string) string {
	return fmt.Sprintf("%s님이 일정 '%s'에 메모를 추가했습니다.", editorName, title)
}

// CompletionRequestMessage asks the owner to complete the schedule.
func CompletionRequestMessage(requesterName, title string) string {
	return fmt.Sprintf("%s님이 일정 '%s'의 완료를 요청했습니다.", requesterName, title)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
