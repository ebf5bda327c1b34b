// Package blob — клиент blob store для движка.
//
// Store покрывает ровно то, что нужно движку: размер объекта (probe),
// чтение целиком в память, запись буфера или локального файла и
// server-side копирование между bucket'ами.
//
// Backends:
//   - s3.go    — S3-совместимое хранилище через minio-go
//   - azure.go — Azure Blob Storage (bucket = container)
//   - fs.go    — каталог на диске, для локальной разработки и тестов
package blob
