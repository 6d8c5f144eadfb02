package model

import "gorm.io/datatypes"

// Coursebook 已导入的学期目录登记，对应 coursebooks
type Coursebook struct {
	CoursebookID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"coursebook_id"`
	Year         int    `gorm:"not null;uniqueIndex:uk_coursebook_term"        json:"year"`
	Semester     int    `gorm:"not null;uniqueIndex:uk_coursebook_term"        json:"semester"`
	BaseModel
}

// TableName 指定表名
func (Coursebook) TableName() string { return "coursebooks" }

// TagSet 某学期目录中出现过的筛选标签
type TagSet struct {
	Classification []string `json:"classification"`
	Department     []string `json:"department"`
	AcademicYear   []string `json:"academic_year"`
	Credit         []string `json:"credit"`
	Instructor     []string `json:"instructor"`
	Category       []string `json:"category"`
}

// TagList 学期标签表，对应 tag_lists
type TagList struct {
	TagListID string                     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	Year      int                        `gorm:"not null;uniqueIndex:uk_tag_list_term"          json:"year"`
	Semester  int                        `gorm:"not null;uniqueIndex:uk_tag_list_term"          json:"semester"`
	Tags      datatypes.JSONType[TagSet] `gorm:"type:jsonb;not null"                            json:"tags"`
	BaseModel
}

// TableName 指定表名
func (TagList) TableName() string { return "tag_lists" }
