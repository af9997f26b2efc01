package crawler

import "jshunter/pkg/store"

// Task is one URL waiting to be fetched. Seeds start at depth 1 with
// Origin KindURL.
type Task struct {
	URL    string
	Depth  int
	Origin store.Kind
}

// Frontier is the LIFO work list of a single descent. It is owned by one
// goroutine and needs no locking.
type Frontier struct {
	tasks []Task
}

func (f *Frontier) Push(t Task) {
	f.tasks = append(f.tasks, t)
}

// PushAll pushes tasks so that tasks[0] is popped first, which keeps a
// document's references in discovery order.
func (f *Frontier) PushAll(tasks []Task) {
	for i := len(tasks) - 1; i >= 0; i-- {
		f.tasks = append(f.tasks, tasks[i])
	}
}

func (f *Frontier) Pop() (Task, bool) {
	if len(f.tasks) == 0 {
		return Task{}, false
	}
	t := f.tasks[len(f.tasks)-1]
	f.tasks = f.tasks[:len(f.tasks)-1]
	return t, true
}

func (f *Frontier) Len() int {
	return len(f.tasks)
}
