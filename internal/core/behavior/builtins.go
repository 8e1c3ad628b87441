package behavior

import "fmt"

// Static leaves for configs and tests.
var (
	Succeed = LeafFunc(func(*ExecuteContext) Status { return StatusSuccess })
	Fail    = LeafFunc(func(*ExecuteContext) Status { return StatusFailure })
	Running = LeafFunc(func(*ExecuteContext) Status { return StatusRunning })
)

// RegisterBuiltins registers the generic leaves every tree config may use.
func RegisterBuiltins(r *Registry) {
	r.RegisterLeaf("Succeed", Succeed)
	r.RegisterLeaf("Fail", Fail)
	r.RegisterLeaf("Running", Running)

	r.Register("IsTrue", func(params Params) (Leaf, error) {
		key := params.String("key", "")
		if key == "" {
			return nil, fmt.Errorf("IsTrue requires 'key'")
		}
		return LeafFunc(func(ctx *ExecuteContext) Status {
			if ctx.Blackboard.Bool(key, false) {
				return StatusSuccess
			}
			return StatusFailure
		}), nil
	})
	r.Register("SetBool", func(params Params) (Leaf, error) {
		key := params.String("key", "")
		if key == "" {
			return nil, fmt.Errorf("SetBool requires 'key'")
		}
		val := params.Bool("value", false)
		return LeafFunc(func(ctx *ExecuteContext) Status {
			ctx.Blackboard.SetBool(key, val)
			return StatusSuccess
		}), nil
	})
}
