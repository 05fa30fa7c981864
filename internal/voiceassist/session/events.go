package session

// Outbound event types carried as JSON text frames. Binary frames carry
// synthesized audio and are not represented here.
const (
	eventTypeReady          = "ready"
	eventTypeTranscript     = "transcript"
	eventTypeAIChunk        = "ai_chunk"
	eventTypeAIDone         = "ai_done"
	eventTypeProducts       = "products"
	eventTypeBusy           = "busy"
	eventTypeProcessingLoad = "processing_load"
	eventTypeInterruptAck   = "interrupt_ack"
	eventTypeError          = "error"
)

type ReadyEvent struct {
	Type string `json:"type"`
}

func NewReadyEvent() ReadyEvent {
	return ReadyEvent{Type: eventTypeReady}
}

type TranscriptEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

func NewTranscriptEvent(text string, isFinal bool) TranscriptEvent {
	return TranscriptEvent{Type: eventTypeTranscript, Text: text, IsFinal: isFinal}
}

type AIChunkEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewAIChunkEvent(text string) AIChunkEvent {
	return AIChunkEvent{Type: eventTypeAIChunk, Text: text}
}

type AIDoneEvent struct {
	Type string `json:"type"`
}

func NewAIDoneEvent() AIDoneEvent {
	return AIDoneEvent{Type: eventTypeAIDone}
}

type ProductsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewProductsEvent(data interface{}) ProductsEvent {
	return ProductsEvent{Type: eventTypeProducts, Data: data}
}

type BusyEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewBusyEvent() BusyEvent {
	return BusyEvent{
		Type:    eventTypeBusy,
		Message: "I'm still working through what you said. Give me a moment before continuing.",
	}
}

type ProcessingLoadEvent struct {
	Type      string `json:"type"`
	QueueSize int    `json:"queueSize"`
}

func NewProcessingLoadEvent(queueSize int) ProcessingLoadEvent {
	return ProcessingLoadEvent{Type: eventTypeProcessingLoad, QueueSize: queueSize}
}

type InterruptAckEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewInterruptAckEvent() InterruptAckEvent {
	return InterruptAckEvent{Type: eventTypeInterruptAck, Message: "Stopped."}
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: eventTypeError, Message: message}
}
