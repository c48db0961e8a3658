// Package adaptive содержит доменную модель интеграции с внешним сервисом
// адаптивного обучения (интервальные повторения).
//
// Пакет определяет:
//
//   - Configuration: типизированные параметры доступа курса и вычисленные Endpoints
//   - сущности сервиса: Student, KnowledgeNodeStudent, Event, PendingReview
//   - Revision: элемент списка повторений, который видит учащийся
//   - анонимизацию идентификатора учащегося (MakeAnonymousUserID)
//   - разбор ключей курса и блока (ParseCourseKey, ParseUsageKey)
//
// # Конфигурация
//
//	cfg, err := adaptive.NewConfiguration(map[string]any{
//	    "url":          "https://x.test",
//	    "api_version":  "v1",
//	    "instance_id":  5,
//	    "access_token": "secret",
//	})
//	cfg.Endpoints().Students // https://x.test/v1/instances/5/students
//
// Курс без осмысленной конфигурации (пустые строки, -1) в адаптивном
// обучении не участвует, см. IsMeaningful.
package adaptive
