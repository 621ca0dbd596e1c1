package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/novatasks/nova/internal/agent/contract"
	"github.com/novatasks/nova/internal/errors"
)

// Tool names exposed to the agent.
const (
	ToolCreate   = "tasks_create"
	ToolList     = "tasks_list"
	ToolUpdate   = "tasks_update"
	ToolComplete = "tasks_complete"
	ToolReopen   = "tasks_reopen"
	ToolDelete   = "tasks_delete"
)

// Toolset binds the agent's task tools to a Service. It implements
// agent.ToolExecutor.
type Toolset struct {
	service       Service
	defaultListID string
}

func NewToolset(service Service, defaultListID string) *Toolset {
	if defaultListID == "" {
		defaultListID = "@default"
	}
	return &Toolset{service: service, defaultListID: defaultListID}
}

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func (t *Toolset) Definitions() []contract.ToolDef {
	listProp := stringProp("Task list id. Omit to use the default list.")
	return []contract.ToolDef{
		{
			Name:        ToolCreate,
			Description: "Create a new task with a title and an optional RFC3339 due date and notes.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":   stringProp("Short task title."),
					"due":     stringProp("Due date in RFC3339, e.g. 2026-01-02T09:00:00Z. Optional."),
					"notes":   stringProp("Free-text notes. Optional."),
					"list_id": listProp,
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        ToolList,
			Description: "List all tasks with their ids, titles, due dates and statuses.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"list_id": listProp,
				},
			},
		},
		{
			Name:        ToolUpdate,
			Description: "Update the title, due date or notes of an existing task by its exact id.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": stringProp("Exact task id obtained from tasks_list."),
					"title":   stringProp("New title. Optional."),
					"due":     stringProp("New due date in RFC3339. Optional."),
					"notes":   stringProp("New notes. Optional."),
					"list_id": listProp,
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        ToolComplete,
			Description: "Mark a task as completed by its exact id.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": stringProp("Exact task id obtained from tasks_list."),
					"list_id": listProp,
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        ToolReopen,
			Description: "Mark a completed task as not done again by its exact id.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": stringProp("Exact task id obtained from tasks_list."),
					"list_id": listProp,
				},
				"required": []string{"task_id"},
			},
		},
		{
			Name:        ToolDelete,
			Description: "Delete a task permanently by its exact id.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"task_id": stringProp("Exact task id obtained from tasks_list."),
					"list_id": listProp,
				},
				"required": []string{"task_id"},
			},
		},
	}
}

type toolArgs struct {
	ListID string `json:"list_id"`
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Due    string `json:"due"`
	Notes  string `json:"notes"`
}

func (t *Toolset) Execute(ctx context.Context, call *contract.ToolCall) (string, error) {
	var args toolArgs
	if call.Input != "" {
		if err := json.Unmarshal([]byte(call.Input), &args); err != nil {
			return "", errors.InvalidInput("malformed tool arguments: " + err.Error())
		}
	}
	listID := args.ListID
	if listID == "" {
		listID = t.defaultListID
	}

	switch call.Name {
	case ToolCreate:
		if args.Title == "" {
			return "", errors.InvalidInput("title is required")
		}
		created, err := t.service.Insert(ctx, listID, Task{Title: args.Title, Due: args.Due, Notes: args.Notes})
		if err != nil {
			return "", err
		}
		return marshalResult(created)

	case ToolList:
		items, err := t.service.List(ctx, listID)
		if err != nil {
			return "", err
		}
		return marshalResult(map[string]interface{}{"tasks": items})

	case ToolUpdate:
		if args.TaskID == "" {
			return "", errors.InvalidInput("task_id is required")
		}
		updated, err := t.service.Patch(ctx, listID, args.TaskID, Task{Title: args.Title, Due: args.Due, Notes: args.Notes})
		if err != nil {
			return "", err
		}
		return marshalResult(updated)

	case ToolComplete:
		if args.TaskID == "" {
			return "", errors.InvalidInput("task_id is required")
		}
		updated, err := t.service.Patch(ctx, listID, args.TaskID, Task{Status: StatusCompleted})
		if err != nil {
			return "", err
		}
		return marshalResult(updated)

	case ToolReopen:
		if args.TaskID == "" {
			return "", errors.InvalidInput("task_id is required")
		}
		updated, err := t.service.Patch(ctx, listID, args.TaskID, Task{Status: StatusNeedsAction})
		if err != nil {
			return "", err
		}
		return marshalResult(updated)

	case ToolDelete:
		if args.TaskID == "" {
			return "", errors.InvalidInput("task_id is required")
		}
		if err := t.service.Delete(ctx, listID, args.TaskID); err != nil {
			return "", err
		}
		return marshalResult(map[string]string{"deleted": args.TaskID})

	default:
		return "", errors.InvalidInput(fmt.Sprintf("unknown tool: %s", call.Name))
	}
}

func marshalResult(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(data), nil
}
