package output

// KafkaOutput forwards messages to a producer, renaming topics to the
// configured Kafka topic names.
type KafkaOutput struct {
	producer Destination
	topics   map[string]string
}

func NewKafkaOutput(producer Destination, topics map[string]string) *KafkaOutput {
	return &KafkaOutput{producer: producer, topics: topics}
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if mapped := k.topics[topic]; mapped != "" {
		topic = mapped
	}
	return k.producer.WriteMessage(topic, msg)
}

func (k *KafkaOutput) Close() error {
	return k.producer.Close()
}
