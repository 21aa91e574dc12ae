package ansible

import (
	"slices"
	"strings"
)

// Keyword is a playbook keyword and its documentation.
type Keyword struct {
	Name        string
	Description string
}

// KeywordSet is an immutable, ordered set of keywords.
type KeywordSet struct {
	list  []Keyword
	index map[string]int
}

func newKeywordSet(names ...string) *KeywordSet {
	s := &KeywordSet{index: make(map[string]int, len(names))}
	for _, name := range names {
		s.index[name] = len(s.list)
		s.list = append(s.list, Keyword{Name: name, Description: descriptions[name]})
	}
	return s
}

// Has reports whether name is in the set.
func (s *KeywordSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Description returns the documentation of name.
func (s *KeywordSet) Description(name string) (string, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.list[i].Description, true
}

// All returns the keywords in declaration order.
func (s *KeywordSet) All() []Keyword {
	return slices.Clone(s.list)
}

func (s *KeywordSet) Len() int {
	return len(s.list)
}

// without returns the keywords of s that none of the others contain.
func (s *KeywordSet) without(others ...*KeywordSet) *KeywordSet {
	var names []string
	for _, kw := range s.list {
		if !slices.ContainsFunc(others, func(o *KeywordSet) bool { return o.Has(kw.Name) }) {
			names = append(names, kw.Name)
		}
	}
	return newKeywordSet(names...)
}

var become = []string{"become", "become_exe", "become_flags", "become_method", "become_user"}

var (
	PlayKeywords = newKeywordSet(slices.Concat(
		[]string{"any_errors_fatal"}, become,
		[]string{
			"check_mode", "collections", "connection", "debugger", "diff", "environment",
			"fact_path", "force_handlers", "gather_facts", "gather_subset", "gather_timeout",
			"handlers", "hosts", "ignore_errors", "ignore_unreachable", "max_fail_percentage",
			"module_defaults", "name", "no_log", "order", "port", "post_tasks", "pre_tasks",
			"remote_user", "roles", "run_once", "serial", "strategy", "tags", "tasks",
			"throttle", "timeout", "vars", "vars_files", "vars_prompt",
		},
	)...)

	RoleKeywords = newKeywordSet(slices.Concat(
		[]string{"any_errors_fatal"}, become,
		[]string{
			"check_mode", "collections", "connection", "debugger", "delegate_facts",
			"delegate_to", "diff", "environment", "ignore_errors", "ignore_unreachable",
			"module_defaults", "name", "no_log", "port", "remote_user", "run_once", "tags",
			"throttle", "timeout", "vars", "when",
		},
	)...)

	BlockKeywords = newKeywordSet(slices.Concat(
		[]string{"always", "any_errors_fatal"}, become,
		[]string{
			"block", "check_mode", "collections", "connection", "debugger", "delegate_facts",
			"delegate_to", "diff", "environment", "ignore_errors", "ignore_unreachable",
			"module_defaults", "name", "no_log", "notify", "port", "remote_user", "rescue",
			"run_once", "tags", "throttle", "timeout", "vars", "when",
		},
	)...)

	TaskKeywords = newKeywordSet(slices.Concat(
		[]string{"action", "any_errors_fatal", "args", "async"}, become,
		[]string{
			"changed_when", "check_mode", "collections", "connection", "debugger", "delay",
			"delegate_facts", "delegate_to", "diff", "environment", "failed_when",
			"ignore_errors", "ignore_unreachable", "local_action", "loop", "loop_control",
			"module_defaults", "name", "no_log", "notify", "poll", "port", "register",
			"remote_user", "retries", "run_once", "tags", "throttle", "timeout", "until",
			"vars", "when", "listen",
		},
	)...)

	// PlayExclusiveKeywords can only appear on a play. Any of them on a
	// mapping is enough to call it a play.
	PlayExclusiveKeywords = PlayKeywords.without(RoleKeywords, BlockKeywords, TaskKeywords)

	// PlayWithoutTaskKeywords is offered next to task keywords when it is
	// unknown whether the mapping is a play or a task.
	PlayWithoutTaskKeywords = PlayKeywords.without(TaskKeywords)
)

// IsTaskKeyword reports whether value is a task keyword, counting the
// legacy with_<lookup> loop keywords.
func IsTaskKeyword(value string) bool {
	return TaskKeywords.Has(value) || strings.HasPrefix(value, "with_")
}

var descriptions = map[string]string{
	"action":              "The 'action' to execute for a task, it normally translates into a module or action plugin.",
	"always":              "List of tasks, in a block, that execute no matter if there is an error in the block or not.",
	"any_errors_fatal":    "Force any un-handled task errors on any host to propagate to all hosts and end the play.",
	"args":                "A secondary way to add arguments into a task. Takes a dictionary in which keys map to options and values.",
	"async":               "Run a task asynchronously if the action supports this; value is maximum runtime in seconds.",
	"become":              "Boolean that controls if privilege escalation is used or not on Task execution. Implemented by the become plugin.",
	"become_exe":          "Path to the executable used to elevate privileges. Implemented by the become plugin.",
	"become_flags":        "A string of flag(s) to pass to the privilege escalation program when become is True.",
	"become_method":       "Which method of privilege escalation to use (such as sudo or su).",
	"become_user":         "User that you 'become' after using privilege escalation. The remote/login user must have permissions to become this user.",
	"block":               "List of tasks in a block.",
	"changed_when":        "Conditional expression that overrides the task's normal 'changed' status.",
	"check_mode":          "A boolean that controls if a task is executed in 'check' mode.",
	"collections":         "List of collection namespaces to search for modules, plugins, and roles.",
	"connection":          "Allows you to change the connection plugin used for tasks to execute on the target.",
	"debugger":            "Enable debugging tasks based on state of the task result.",
	"delay":               "Number of seconds to delay between retries. This setting is only used in combination with until.",
	"delegate_facts":      "Boolean that allows you to apply facts to a delegated host instead of inventory_hostname.",
	"delegate_to":         "Host to execute task instead of the target (inventory_hostname). Connection vars from the delegated host will also be used for the task.",
	"diff":                "Toggle to make tasks return 'diff' information or not.",
	"environment":         "A dictionary that gets converted into environment vars to be provided for the task upon execution. This can ONLY be used with modules.",
	"fact_path":           "Set the fact path option for the fact gathering plugin controlled by gather_facts.",
	"failed_when":         "Conditional expression that overrides the task's normal 'failed' status.",
	"force_handlers":      "Will force notified handler execution for hosts even if they failed during the play. Will not trigger if the play itself fails.",
	"gather_facts":        "A boolean that controls if the play will automatically run the 'setup' task to gather facts for the hosts.",
	"gather_subset":       "Allows you to pass subset options to the fact gathering plugin controlled by gather_facts.",
	"gather_timeout":      "Allows you to set the timeout for the fact gathering plugin controlled by gather_facts.",
	"handlers":            "A section with tasks that are treated as handlers, these won't get executed normally, only when notified after each section of tasks is complete.",
	"hosts":               "A list of groups, hosts or host pattern that translates into a list of hosts that are the play's target.",
	"ignore_errors":       "Boolean that allows you to ignore task failures and continue with play. It does not affect connection errors.",
	"ignore_unreachable":  "Boolean that allows you to ignore task failures due to an unreachable host and continue with the play.",
	"listen":              "Applies only to handlers, specifies the names of the notification topics this handler listens to.",
	"local_action":        "Same as action but also implies delegate_to: localhost",
	"loop":                "Takes a list for the task to iterate over, saving each list element into the item variable (configurable via loop_control)",
	"loop_control":        "Several keys here allow you to modify/set loop behavior in a task.",
	"max_fail_percentage": "Can be used to abort the run after a given percentage of hosts in the current batch has failed.",
	"module_defaults":     "Specifies default parameter values for modules.",
	"name":                "Identifier. Can be used for documentation, or in tasks/handlers.",
	"no_log":              "Boolean that controls information disclosure.",
	"notify":              "List of handlers to notify when the task returns a 'changed=True' status.",
	"order":               "Controls the sorting of hosts as they are used for executing the play. Possible values are inventory (default), sorted, reverse_sorted, reverse_inventory and shuffle.",
	"poll":                "Sets the polling interval in seconds for async tasks (default 10s).",
	"port":                "Used to override the default port used in a connection.",
	"post_tasks":          "A list of tasks to execute after the tasks section.",
	"pre_tasks":           "A list of tasks to execute before roles.",
	"register":            "Name of variable that will contain task status and module return data.",
	"remote_user":         "User used to log into the target via the connection plugin.",
	"rescue":              "List of tasks in a block that run if there is a task error in the main block list.",
	"retries":             "Number of retries before giving up in a until loop. This setting is only used in combination with until.",
	"roles":               "List of roles to be imported into the play",
	"run_once":            "Boolean that will bypass the host loop, forcing the task to attempt to execute on the first host available and afterwards apply any results and facts to all active hosts in the same batch.",
	"serial":              "Explicitly define how Ansible batches the execution of the current play on the play's target",
	"strategy":            "Allows you to choose the connection plugin to use for the play.",
	"tags":                "Tags applied to the task or included tasks, this allows selecting subsets of tasks from the command line.",
	"tasks":               "Main list of tasks to execute in the play, they run after roles and before post_tasks.",
	"throttle":            "Limit number of concurrent task runs on task, block and playbook level.",
	"timeout":             "Time limit for task to execute in, if exceeded Ansible will interrupt and fail the task.",
	"until":               "This keyword implies a 'retries loop' that will go on until the condition supplied here is met or we hit the retries limit.",
	"vars":                "Dictionary/map of variables",
	"vars_files":          "List of files that contain vars to include in the play.",
	"vars_prompt":         "List of variables to prompt for.",
	"when":                "Conditional expression, determines if an iteration of a task is run or not.",
}
