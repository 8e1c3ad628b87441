package bot

import (
	"fmt"

	"github.com/zeusync/skirmish/internal/core/behavior"
)

const (
	// TreeDefault fights whoever is cheapest to reach in the open arena.
	TreeDefault = "default"
	// TreeBase holds or rushes a base along its reference path and falls back to the arena.
	TreeBase = "base"
)

func (b *Bot) buildTree(name string) (*behavior.Engine, error) {
	switch name {
	case "", TreeDefault:
		return DefaultTree(b)
	case TreeBase:
		return BaseTree(b)
	}
	cfg, err := behavior.LoadFile(name)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", name, err)
	}
	engine, err := cfg.Build(LeafRegistry(b))
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", name, err)
	}
	return engine, nil
}

// centerCombat adds the shared arena combat branch: find a target, then shoot it while in
// sight or path toward it otherwise.
func centerCombat(tb *behavior.Builder, b *Bot, prefix string) behavior.NodeID {
	shoot := tb.Selector(prefix+"weapon_selector", tb.Leaf(prefix+"shoot_enemy", shootEnemy{b}))
	move := tb.Selector(prefix+"move_method_selector", tb.Leaf(prefix+"move_to_enemy", moveToEnemy{b, b.cfg.HoverDistance}))
	fight := tb.Sequence(prefix+"los_shoot_conditional",
		tb.Leaf(prefix+"target_in_los", inLineOfSight{b}),
		tb.Parallel(prefix+"parallel_shoot_enemy", shoot, move),
	)
	chase := tb.Sequence(prefix+"path_to_enemy_sequence",
		tb.Leaf(prefix+"path_to_enemy", pathToEnemy{b}),
		tb.Leaf(prefix+"follow_path", followPath{b}),
	)
	return tb.Sequence(prefix+"find_enemy_in_center_sequence",
		tb.Leaf(prefix+"find_enemy_in_center", findEnemyInCenter{b, b.cfg.Stickiness}),
		tb.Selector(prefix+"path_or_shoot_selector", fight, chase),
	)
}

// preamble adds the checks every tree runs before acting: alive, in the right ship and on
// the right frequency. It ends by refreshing the weapon influence.
func preamble(tb *behavior.Builder, b *Bot) []behavior.NodeID {
	return []behavior.NodeID{
		tb.Leaf("respawn_check", respawnCheck{}),
		tb.Leaf("set_ship", setShip{b}),
		tb.Leaf("set_freq", setFreq{b}),
		tb.Leaf("ship_check", shipCheck{}),
		tb.Leaf("cast_weapon_influence", castWeaponInfluence{b}),
	}
}

// withMineSweeper runs action next to the mine sweeper. The action decides the status.
func withMineSweeper(tb *behavior.Builder, b *Bot, action behavior.NodeID) behavior.NodeID {
	return tb.Parallel("action_parallel", action, tb.Leaf("mine_sweeper", mineSweeper{b}))
}

// DefaultTree builds the arena tree. When nothing applies the agent idles.
func DefaultTree(b *Bot) (*behavior.Engine, error) {
	tb := behavior.NewBuilder()

	action := tb.Selector("action_selector",
		centerCombat(tb, b, ""),
		tb.Sequence("patrol_sequence",
			tb.Leaf("patrol", patrol{b}),
			tb.Leaf("patrol_follow_path", followPath{b}),
		),
	)
	body := tb.Sequence("root_sequence", append(preamble(tb, b), withMineSweeper(tb, b, action))...)
	root := tb.Selector("root", body, tb.Leaf("idle", idle{b}))
	return tb.Build(root)
}

// BaseTree builds the base tree. Inside a base the agent anchors or rushes along the base
// path and shoots whatever it sees; in the arena it plays the default tree.
func BaseTree(b *Bot) (*behavior.Engine, error) {
	tb := behavior.NewBuilder()

	position := tb.Sequence("base_path_sequence",
		tb.Selector("base_path_selector",
			tb.Leaf("anchor_base_path", anchorBasePath{b}),
			tb.Leaf("rusher_base_path", rusherBasePath{b}),
			tb.Leaf("base_path_to_enemy", pathToEnemy{b}),
		),
		tb.Leaf("base_follow_path", followPath{b}),
	)
	shoot := tb.Sequence("base_shoot_sequence",
		tb.Leaf("base_target_in_los", inLineOfSight{b}),
		tb.Leaf("base_shoot_enemy", shootEnemy{b}),
	)
	baseCombat := tb.Sequence("base_combat",
		tb.Leaf("find_enemy_in_base", findEnemyInBase{b}),
		tb.Parallel("base_parallel", position, shoot),
	)

	action := tb.Selector("action_selector",
		baseCombat,
		centerCombat(tb, b, "center_"),
		tb.Sequence("patrol_sequence",
			tb.Leaf("patrol", patrol{b}),
			tb.Leaf("patrol_follow_path", followPath{b}),
		),
	)
	steps := append(preamble(tb, b), tb.Leaf("sort_base_teams", sortBaseTeams{b}), withMineSweeper(tb, b, action))
	body := tb.Sequence("root_sequence", steps...)
	root := tb.Selector("root", body, tb.Leaf("idle", idle{b}))
	return tb.Build(root)
}

// LeafRegistry returns the builtin leaves plus every agent leaf bound to b, for trees
// described in config files.
func LeafRegistry(b *Bot) *behavior.Registry {
	reg := behavior.NewRegistry()
	behavior.RegisterBuiltins(reg)

	reg.RegisterLeaf("RespawnCheck", respawnCheck{})
	reg.RegisterLeaf("ShipCheck", shipCheck{})
	reg.RegisterLeaf("IsAnchor", isAnchor{})
	reg.RegisterLeaf("SetShip", setShip{b})
	reg.RegisterLeaf("SetFreq", setFreq{b})
	reg.RegisterLeaf("SortBaseTeams", sortBaseTeams{b})
	reg.RegisterLeaf("InLineOfSight", inLineOfSight{b})
	reg.RegisterLeaf("FindEnemyInBase", findEnemyInBase{b})
	reg.RegisterLeaf("ShootEnemy", shootEnemy{b})
	reg.RegisterLeaf("PathToEnemy", pathToEnemy{b})
	reg.RegisterLeaf("Patrol", patrol{b})
	reg.RegisterLeaf("RusherBasePath", rusherBasePath{b})
	reg.RegisterLeaf("AnchorBasePath", anchorBasePath{b})
	reg.RegisterLeaf("FollowPath", followPath{b})
	reg.RegisterLeaf("Idle", idle{b})
	reg.RegisterLeaf("MineSweeper", mineSweeper{b})
	reg.RegisterLeaf("CastWeaponInfluence", castWeaponInfluence{b})

	reg.Register("FindEnemyInCenter", func(params behavior.Params) (behavior.Leaf, error) {
		stickiness := params.Float("stickiness", b.cfg.Stickiness)
		if stickiness <= 0 {
			return nil, fmt.Errorf("stickiness must be positive, got %v", stickiness)
		}
		return findEnemyInCenter{b, stickiness}, nil
	})
	reg.Register("MoveToEnemy", func(params behavior.Params) (behavior.Leaf, error) {
		hover := params.Float("hover", b.cfg.HoverDistance)
		if hover < 0 {
			return nil, fmt.Errorf("hover must not be negative, got %v", hover)
		}
		return moveToEnemy{b, hover}, nil
	})
	return reg
}
