package api

import (
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
	"github.com/lysyi3m/policy-radar/app/tasks"
)

type GeneratorInterface interface {
	Run(articles []*article.Article, format string, updated time.Time) (string, error)
}

var _ GeneratorInterface = (*Generator)(nil)

// SchedulerInterface is the part of the task scheduler the API drives.
type SchedulerInterface interface {
	tasks.TaskSchedulerInterface
	Trigger() error
}

var _ SchedulerInterface = (*tasks.Scheduler)(nil)

// CatalogInterface is the part of the source catalog the API reads and reloads.
type CatalogInterface interface {
	Run() error
	Get(name string) (*source.Source, error)
	Sources() []source.Source
	Count() int
}
