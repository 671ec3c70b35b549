// Package fuzztests houses Go fuzz harnesses for the keb pipeline
// (source -> lexer -> parser -> sem -> ssa -> vm). They guard against panics
// and against SSA that fails validation on arbitrary inputs.
//
// Назначение: загружать байты в FileSet и прогонять их через весь конвейер.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
