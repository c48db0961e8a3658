package adaptive

import "strconv"

// Endpoints держит полные адреса ресурсов сервиса для одного экземпляра.
type Endpoints struct {
	Base                  string
	Instance              string
	Students              string
	KnowledgeNodeStudents string
	Events                string
	PendingReviews        string
}

func newEndpoints(s settings) Endpoints {
	base := s.URL + "/" + s.APIVersion
	instance := base + "/instances/" + strconv.FormatInt(s.InstanceID, 10)
	return Endpoints{
		Base:                  base,
		Instance:              instance,
		Students:              instance + "/students",
		KnowledgeNodeStudents: instance + "/knowledge_node_students",
		Events:                instance + "/events",
		PendingReviews:        instance + "/review_utils/fetch_reviews",
	}
}
