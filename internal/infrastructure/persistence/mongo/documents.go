package mongo

import (
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
)

// Field names shared by documents and pipelines.
const (
	fieldID          = "_id"
	fieldName        = "name"
	fieldMarks       = "marks"
	fieldMarkSubject = "marks.subject"
	fieldMarkValue   = "marks.mark"
	fieldSubjectName = "subjectName"

	fieldAvgMark      = "avgMark"
	fieldCountOfMarks = "countOfMarks"
	fieldMinMark      = "minMark"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORED DOCUMENTS
// ══════════════════════════════════════════════════════════════════════════════

type subjectMarkDoc struct {
	Subject string `bson:"subject"`
	Mark    int    `bson:"mark"`
}

type studentDoc struct {
	ID    int64            `bson:"_id"`
	Name  string           `bson:"name"`
	Marks []subjectMarkDoc `bson:"marks"`
}

type subjectDoc struct {
	ID          int64  `bson:"_id"`
	SubjectName string `bson:"subjectName"`
}

func newStudentDoc(s *college.Student) studentDoc {
	marks := make([]subjectMarkDoc, 0, len(s.Marks))
	for _, m := range s.Marks {
		marks = append(marks, subjectMarkDoc{Subject: m.Subject, Mark: m.Mark})
	}
	return studentDoc{ID: s.ID, Name: s.Name, Marks: marks}
}

func (d studentDoc) toDomain() *college.Student {
	st := college.NewStudent(d.ID, d.Name)
	for _, m := range d.Marks {
		st.AppendMark(college.SubjectMark{Subject: m.Subject, Mark: m.Mark})
	}
	return st
}

func newSubjectDoc(s *college.Subject) subjectDoc {
	return subjectDoc{ID: s.ID, SubjectName: s.SubjectName}
}

func (d subjectDoc) toDomain() *college.Subject {
	return &college.Subject{ID: d.ID, SubjectName: d.SubjectName}
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION ROWS
// ══════════════════════════════════════════════════════════════════════════════

// studentRow is a group output keyed by {id, name}.
type studentRow struct {
	Key struct {
		ID   int64  `bson:"id"`
		Name string `bson:"name"`
	} `bson:"_id"`
}

// studentIDRow is a group output keyed by the student id alone.
type studentIDRow struct {
	ID int64 `bson:"_id"`
}

// subjectNameRow is a group output keyed by the subject name carried in marks.
type subjectNameRow struct {
	Name string `bson:"_id"`
}

// subjectRow is a group output keyed by {id, subjectName}.
type subjectRow struct {
	Key struct {
		ID          int64  `bson:"id"`
		SubjectName string `bson:"subjectName"`
	} `bson:"_id"`
}

type avgMarkRow struct {
	AvgMark *float64 `bson:"avgMark"`
}

type marksCountRow struct {
	Count int64 `bson:"countOfMarks"`
}

func studentRefs(rows []studentRow) []college.StudentRef {
	refs := make([]college.StudentRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, college.StudentRef{ID: r.Key.ID, Name: r.Key.Name})
	}
	return college.SortStudentsByID(refs)
}

func subjectList(rows []subjectRow) []college.Subject {
	out := make([]college.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, college.Subject{ID: r.Key.ID, SubjectName: r.Key.SubjectName})
	}
	return college.SortSubjectsByID(out)
}
