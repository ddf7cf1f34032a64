package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"taskboard/internal/model"
	"taskboard/internal/service"
)

const (
	alertMissingFields = "Please fill all fields"
	alertDuplicate     = "This task already exists in this category!"
	alertAddFailed     = "Could not add the task, please try again"
)

// Store is the task store surface the handlers use.
type Store interface {
	Add(ctx context.Context, title, category string, priority model.Priority) (model.Task, error)
	Delete(ctx context.Context, id string) bool
	Toggle(ctx context.Context, id string) (model.Task, bool)
	Filter(mode model.Filter) []model.Task
	Counts() service.Counts
}

// New builds an Echo instance serving the HTML page and the JSON API.
func New(store Store, categories []string, log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newRenderer()
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	Register(e, store, categories, log)
	return e
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, categories []string, log logrus.FieldLogger) {
	e.GET("/", index(store, categories))
	e.POST("/tasks", submitTask(store, categories, log))
	e.POST("/tasks/:id/toggle", toggleTask(store))
	e.POST("/tasks/:id/delete", deleteTask(store))

	e.GET("/api/tasks", listTasks(store))
	e.POST("/api/tasks", createTask(store, categories))
	e.POST("/api/tasks/:id/toggle", apiToggleTask(store))
	e.DELETE("/api/tasks/:id", apiDeleteTask(store))
	e.GET("/healthz", healthz())
}

type formValues struct {
	Title    string
	Category string
	Priority string
}

type pageData struct {
	Tasks         []model.Task
	Filter        model.Filter
	Filters       []model.Filter
	CountByFilter map[model.Filter]int
	Categories    []string
	Priorities    []model.Priority
	Alert         string
	Form          formValues
}

func newPage(store Store, categories []string, filter model.Filter) pageData {
	counts := store.Counts()
	return pageData{
		Tasks:   store.Filter(filter),
		Filter:  filter,
		Filters: model.Filters,
		CountByFilter: map[model.Filter]int{
			model.FilterAll:       counts.All,
			model.FilterPending:   counts.Pending,
			model.FilterCompleted: counts.Completed,
		},
		Categories: categories,
		Priorities: model.Priorities,
	}
}

func index(store Store, categories []string) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := model.ParseFilter(c.QueryParam("filter"))
		return c.Render(http.StatusOK, "index.html", newPage(store, categories, filter))
	}
}

func submitTask(store Store, categories []string, log logrus.FieldLogger) echo.HandlerFunc {
	return func(c echo.Context) error {
		form := formValues{
			Title:    c.FormValue("title"),
			Category: c.FormValue("category"),
			Priority: c.FormValue("priority"),
		}
		task, err := addTask(c.Request().Context(), store, categories, form)
		if err != nil {
			page := newPage(store, categories, model.FilterAll)
			page.Form = form
			var status int
			switch {
			case errors.Is(err, service.ErrInvalidTask):
				status = http.StatusUnprocessableEntity
				page.Alert = alertMissingFields
			case errors.Is(err, service.ErrDuplicateTask):
				status = http.StatusConflict
				page.Alert = alertDuplicate
			default:
				log.WithError(err).Error("failed to create task via web")
				status = http.StatusInternalServerError
				page.Alert = alertAddFailed
			}
			return c.Render(status, "index.html", page)
		}
		log.WithFields(logrus.Fields{"task": task.ID, "category": task.Category}).Info("task created via web")
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

func toggleTask(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		store.Toggle(c.Request().Context(), c.Param("id"))
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

func deleteTask(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		store.Delete(c.Request().Context(), c.Param("id"))
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

type createTaskRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type tasksResponse struct {
	Filter model.Filter `json:"filter"`
	Tasks  []model.Task `json:"tasks"`
}

func listTasks(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := model.ParseFilter(c.QueryParam("filter"))
		return c.JSON(http.StatusOK, tasksResponse{Filter: filter, Tasks: store.Filter(filter)})
	}
}

func createTask(store Store, categories []string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		task, err := addTask(c.Request().Context(), store, categories, formValues(req))
		switch {
		case errors.Is(err, service.ErrDuplicateTask):
			return echo.NewHTTPError(http.StatusConflict, alertDuplicate)
		case errors.Is(err, service.ErrInvalidTask):
			return echo.NewHTTPError(http.StatusBadRequest, alertMissingFields)
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func apiToggleTask(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, ok := store.Toggle(c.Request().Context(), c.Param("id"))
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return c.JSON(http.StatusOK, task)
	}
}

func apiDeleteTask(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !store.Delete(c.Request().Context(), c.Param("id")) {
			return echo.NewHTTPError(http.StatusNotFound, "task not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// addTask resolves the form against the offered categories and priorities.
// Unknown choices count as missing fields, like an empty select.
func addTask(ctx context.Context, store Store, categories []string, form formValues) (model.Task, error) {
	category, ok := model.MatchCategory(categories, form.Category)
	if !ok {
		return model.Task{}, service.ErrInvalidTask
	}
	priority, ok := model.ParsePriority(form.Priority)
	if !ok {
		return model.Task{}, service.ErrInvalidTask
	}
	return store.Add(ctx, form.Title, category, priority)
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Microsecond).String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}
