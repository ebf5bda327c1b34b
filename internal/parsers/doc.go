// Package parsers превращает содержимое файла в структурированные данные.
//
// # Registry
//
// Registry — неизменяемая карта (DocumentCategory × расширение) → Parser,
// строится при старте через NewRegistry или Default. Ошибки сборки
// (расширение вне allow-list, дубликат, расширение без парсера ORDER)
// останавливают процесс до первого run.
//
// # Встроенные парсеры
//
//   - ORDER .pdf   — ParseOrderPDF (pdfcpu + ledongthuc/pdf), по записи на страницу
//   - ORDER .txt   — ParseOrderText, пары "ключ：значение" и таблица товаров
//   - ORDER .xlsx  — Excel (excelize)
//   - ORDER .xls   — Excel (extrame/xls)
//   - MASTER .txt  — ParseMasterText, блоки "# Table: "
//
// Парсер возвращает ErrMalformed, если содержимое не соответствует
// формату; шаг file_parse в этом случае даёт пустой output.
package parsers
