// Package classifier — первый шаг каждого run.
//
// По пути и явному флагу источника (local / s3) Classifier:
//   - проверяет расширение по allow-list (ErrInvalidPath)
//   - строит domain.FileRecord
//   - выводит DocumentCategory из сегментов пути (CategoryOf, чистая функция)
//   - читает файл целиком в память (ErrNotFound, если его нет)
//
// Источник никогда не угадывается по пути.
package classifier
