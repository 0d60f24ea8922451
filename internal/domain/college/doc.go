// Package college содержит доменную модель учёта успеваемости колледжа.
//
// Пакет определяет:
//
//   - Сущности: Student (со встроенными оценками), SubjectMark, Subject
//   - Команды на запись: Mark (добавление оценки студенту по предмету)
//   - Строки отчётов: StudentRef, SubjectRef
//   - Интерфейсы репозиториев: StudentRepository, SubjectRepository, ReportRepository
//   - SubjectResolver и SubjectCache для восстановления id предмета по имени
//
// # Модель данных
//
// Оценки хранятся внутри документа студента, а предмет в оценке указан
// только по имени (копия Subject.SubjectName на момент добавления).
// Переименование предмета не меняет уже записанные оценки.
//
//	st := NewStudent(1, "Vasya")
//	st.AppendMark(SubjectMark{Subject: "Math", Mark: 90})
//	st.AverageMark() // 90, true
//
// # Репозитории
//
// Реализации находятся в infrastructure/persistence/mongo. Все отчёты
// строятся агрегациями над коллекцией студентов.
//
// Пакет не имеет внешних зависимостей - только стандартная библиотека Go.
package college
