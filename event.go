package blueprint

import "time"

// Event is a sealed interface representing either a streaming event emitted
// by a provider or a progress event emitted by the pipeline driver.
// Transport/protocol errors come from Next()'s error return, not from events.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta.
type EventTextDelta struct {
	Index int
	Delta string
}

func (EventTextDelta) event() {}

// EventThinkingDelta represents a thinking content delta.
type EventThinkingDelta struct {
	Index int
	Delta string
}

func (EventThinkingDelta) event() {}

// EventStageStarted signals that the driver is about to invoke a stage.
type EventStageStarted struct {
	Stage StageID
}

func (EventStageStarted) event() {}

// EventStageFinished carries the recorded step and the content the stage
// produced. It is emitted after the step has been recorded.
type EventStageFinished struct {
	Step    Step
	Content string
}

func (EventStageFinished) event() {}

// EventStageFailed signals that a stage failed and the run is halting.
type EventStageFailed struct {
	Stage StageID
	Err   error
}

func (EventStageFailed) event() {}

// EventStageCancelled signals that a concurrent stage was abandoned because
// a sibling failed. Its result, if any, is not recorded.
type EventStageCancelled struct {
	Stage StageID
}

func (EventStageCancelled) event() {}

// EventForkStarted signals the start of a concurrent stage block.
type EventForkStarted struct {
	Stages []StageID
}

func (EventForkStarted) event() {}

// EventForkFinished signals that every stage of a concurrent block returned.
type EventForkFinished struct {
	Duration time.Duration
}

func (EventForkFinished) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
	_ Event = EventStageStarted{}
	_ Event = EventStageFinished{}
	_ Event = EventStageFailed{}
	_ Event = EventStageCancelled{}
	_ Event = EventForkStarted{}
	_ Event = EventForkFinished{}
)
