// Package steps содержит registry шагов и стандартные capability.
//
// # Capability
//
// Capability — закрытый набор операций:
//
//	extract_metadata    — FileRecord в виде map
//	parse_file_to_json  — разбор файла через parsers.Registry
//	mapping             — {document_type, source_file, records}
//	validation          — отклоняет пустой payload, иначе возвращает его
//	write_json_to_s3    — <stem>.json в bucket категории
//	write_raw_to_s3     — копия raw файла справочника в master bucket
//	publish_data        — публикация payload через Publisher
//
// Все capability имеют одну сигнатуру Func и получают *Run и аргументы,
// собранные dispatcher'ом из execution context.
//
// # Registry
//
// Registry связывает имя шага из удалённого workflow с Definition:
//
//	reg, err := steps.NewRegistry(steps.DefaultDefinitions(), steps.Builtin(deps))
//	if err != nil {
//	    // ошибка конфигурации, старт невозможен
//	}
//	def := reg.Resolve("file_parse")
//
// NewRegistry отклоняет Materialize без Output, дубликаты, пустые имена и
// capability без функции. Resolve для неизвестного имени возвращает
// определение с capability, равной имени; dispatcher превращает его в
// пустой результат. Validate используется в strict mode до открытия сессии.
//
// # Файлы пакета
//
//   - step.go         — Capability, Func, Definition, Run, ошибки
//   - registry.go     — Registry, ValidationError
//   - definitions.go  — стандартные определения и ключи context
//   - capabilities.go — реализации capability
package steps
