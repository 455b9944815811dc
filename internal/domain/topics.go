package domain

// Topic is a categorical tag used to select questions and bucket scores.
type Topic string

const (
	TopicMachineLearning Topic = "Machine Learning technical concepts"
	TopicDeepLearning    Topic = "Deep Learning technical concepts"
	TopicStatistics      Topic = "Statistics"
	TopicGenerativeAI    Topic = "Generative AI"
	TopicMLOps           Topic = "MLOps technical concepts"
	TopicAgenticAI       Topic = "Agentic AI technical concepts"
	TopicAPI             Topic = "API technical concepts"
	TopicLLM             Topic = "LLM and Foundational Model concepts"
)

// TopicOption pairs a topic value with its short display label.
type TopicOption struct {
	Value Topic
	Label string
}

// TopicCatalog lists the topics the backend can generate questions for,
// in menu order.
var TopicCatalog = []TopicOption{
	{Value: TopicMachineLearning, Label: "Machine Learning"},
	{Value: TopicDeepLearning, Label: "Deep Learning"},
	{Value: TopicStatistics, Label: "Statistics"},
	{Value: TopicGenerativeAI, Label: "Generative AI"},
	{Value: TopicMLOps, Label: "MLOps"},
	{Value: TopicAgenticAI, Label: "Agentic AI"},
	{Value: TopicAPI, Label: "API"},
	{Value: TopicLLM, Label: "LLM & FM"},
}

var topicLabels = func() map[Topic]string {
	m := make(map[Topic]string, len(TopicCatalog))
	for _, opt := range TopicCatalog {
		m[opt.Value] = opt.Label
	}
	return m
}()

// TopicLabel returns the short display label, falling back to the raw value
// for topics outside the catalog.
func TopicLabel(topic Topic) string {
	if label, ok := topicLabels[topic]; ok {
		return label
	}
	return string(topic)
}
