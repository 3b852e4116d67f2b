package model

import "context"

// Source turns a story URL of one site into a Story.
type Source interface {
	Host() string
	Cover() *Cover
	Fetch(ctx context.Context, storyURL *StoryURL) (*Story, error)
}

// Progress receives chapter progress while a Source fetches a story.
type Progress interface {
	SetTotal(total int)
	Increment(name string)
}

type NopProgress struct{}

func (NopProgress) SetTotal(int)     {}
func (NopProgress) Increment(string) {}
