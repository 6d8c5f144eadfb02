package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

// 非法 UUID 在访问数据库之前即返回记录不存在，db 为 nil 也不会被触达
func TestMalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	timetables := NewTimetableRepo(nil)
	lectures := NewLectureRepo(nil)

	for _, id := range []string{"", "abc", "not-a-uuid", "123", "0b8f6a2e-5c4d-4e1f-9a3b"} {
		if _, err := timetables.GetByUserAndID(ctx, "user-1", id); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("GetByUserAndID(%q) 期望 ErrRecordNotFound，实际 %v", id, err)
		}
		if _, err := timetables.GetByID(ctx, id); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("GetByID(%q) 期望 ErrRecordNotFound，实际 %v", id, err)
		}
		if err := timetables.Delete(ctx, "user-1", id); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("Delete(%q) 期望 ErrRecordNotFound，实际 %v", id, err)
		}
		if _, err := lectures.GetByID(ctx, id); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("Lecture.GetByID(%q) 期望 ErrRecordNotFound，实际 %v", id, err)
		}
	}
}

func TestIsUUID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0b8f6a2e-5c4d-4e1f-9a3b-7d2c1e0f4a51", true},
		{"0B8F6A2E-5C4D-4E1F-9A3B-7D2C1E0F4A51", true},
		{"tt-1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isUUID(tt.id); got != tt.want {
			t.Errorf("isUUID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
