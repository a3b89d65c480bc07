package dataset

// columnMap maps the spreadsheet's source-language header labels to the
// canonical field names used in the JSON snapshot. Headers outside this
// table are ignored.
var columnMap = map[string]string{
	"大学":       "name",
	"学部":       "department",
	"学科":       "major",
	"位置":       "region",
	"文理":       "bunri",
	"方式":       "selectionMethod",
	"第几期":      "period",
	"併願":       "combined",
	"能使用EJU":   "ejuPeriod",
	"需要EJU科目":  "ejuSubjects",
	"英语":       "english",
	"JLPT":     "jlpt",
	"网上出愿开始时间": "mailStart",
	"网上出愿截止时间": "mailEnd",
	"邮寄开始时间":   "mailStartDate",
	"邮寄截止时间":   "mailEndDate",
	"必着/消印":    "mailEndNote",
	"校内考形式":    "examFormat",
	"校内考时间1":   "examDate",
	"校内考时间2":   "examDate2",
	"发榜时间":     "announcementDate",
}

// nameField is the primary identifier: rows without it are dropped.
const nameField = "name"

// csvColumns is the fixed output order of the CSV snapshot, by source label.
// It is an explicit list, not the map's key set: the CSV deliberately leaves
// out the mail-deadline note column.
var csvColumns = []string{
	"大学", "学部", "学科", "位置", "文理", "方式", "第几期", "併願",
	"能使用EJU", "需要EJU科目", "英语", "JLPT", "校内考形式",
	"网上出愿开始时间", "网上出愿截止时间", "邮寄开始时间", "邮寄截止时间",
	"校内考时间1", "校内考时间2", "发榜时间",
}
