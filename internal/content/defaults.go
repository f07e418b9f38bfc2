package content

// Default returns the built-in content tables. A JSON content file loaded via
// Load replaces these wholesale; there is no merging.
func Default() *Registry {
	f := &File{
		Resources: []Resource{
			{ID: "coins", Name: "Coins"},
			{ID: "wood", Name: "Wood"},
			{ID: "stone", Name: "Stone"},
			{ID: "shrimp", Name: "Shrimp"},
			{ID: "ore", Name: "Iron Ore"},
			{ID: "plank", Name: "Plank"},
			{ID: "tools", Name: "Tools"},
			{ID: "coffee", Name: "Coffee"},
		},
		WorkerTypes: []WorkerType{
			{ID: "apprentice", Name: "Apprentice", BaseSpeed: 0.2},
			{ID: "laborer", Name: "Laborer", BaseSpeed: 0.35, BonusSkill: "woodcutting"},
			{ID: "journeyman", Name: "Journeyman", BaseSpeed: 0.5, BonusSkill: "crafting"},
		},
		Boosts: []Boost{
			{Resource: "coffee", SpeedBonus: 0.25, ConsumptionRate: 1, Eligible: []WorkerTypeID{"apprentice", "laborer", "journeyman"}},
		},
		Activities: []Activity{
			{
				ID: "chop_wood", Name: "Chop Wood", Skill: "woodcutting",
				LevelRequired: 1, Duration: 2,
				Outputs: map[ResourceID]float64{"wood": 1},
				XP:      5,
			},
			{
				ID: "quarry_stone", Name: "Quarry Stone", Skill: "mining",
				LevelRequired: 1, Duration: 3,
				Outputs: map[ResourceID]float64{"stone": 1},
				XP:      6,
			},
			{
				ID: "catch_shrimp", Name: "Catch Shrimp", Skill: "fishing",
				LevelRequired: 1, Duration: 2,
				Outputs: map[ResourceID]float64{"shrimp": 1},
				XP:      5,
			},
			{
				ID: "mine_ore", Name: "Mine Ore", Skill: "mining",
				LevelRequired: 3, Duration: 4,
				Outputs: map[ResourceID]float64{"ore": 1},
				XP:      10,
			},
			{
				ID: "saw_planks", Name: "Saw Planks", Skill: "crafting",
				LevelRequired: 2, Duration: 3,
				Inputs:  map[ResourceID]float64{"wood": 2},
				Outputs: map[ResourceID]float64{"plank": 1},
				XP:      12,
			},
			{
				ID: "forge_tools", Name: "Forge Tools", Skill: "crafting",
				LevelRequired: 5, Duration: 6,
				Inputs:  map[ResourceID]float64{"ore": 2, "plank": 1},
				Outputs: map[ResourceID]float64{"tools": 1, "coins": 4},
				XP:      25,
			},
			{
				ID: "sell_shrimp", Name: "Sell Shrimp", Skill: "fishing",
				LevelRequired: 2, Duration: 2,
				Inputs:  map[ResourceID]float64{"shrimp": 1},
				Outputs: map[ResourceID]float64{"coins": 2},
				XP:      3,
			},
		},
		Upgrades: []Upgrade{
			{
				ID: "sharp_axe", Name: "Sharpened Axe", Activity: "chop_wood",
				Effect: Effect{Kind: EffectSpeed, Value: 0.1},
				Cost:   map[ResourceID]float64{"coins": 50},
				Skill:  "woodcutting", SkillLevel: 2,
			},
			{
				ID: "steel_axe", Name: "Steel Axe", Activity: "chop_wood",
				Effect: Effect{Kind: EffectSpeed, Value: 0.15},
				Cost:   map[ResourceID]float64{"coins": 200},
				Skill:  "woodcutting", SkillLevel: 5, Requires: "sharp_axe",
			},
			{
				ID: "bigger_net", Name: "Bigger Net", Activity: "catch_shrimp",
				Effect: Effect{Kind: EffectOutputBonus, Value: 1, Resource: "shrimp"},
				Cost:   map[ResourceID]float64{"coins": 80},
				Skill:  "fishing", SkillLevel: 3,
			},
			{
				ID: "efficient_sawing", Name: "Efficient Sawing", Activity: "saw_planks",
				Effect: Effect{Kind: EffectCostReduction, Value: 0.25},
				Cost:   map[ResourceID]float64{"coins": 120},
				Skill:  "crafting", SkillLevel: 4,
			},
		},
		BuildingTypes: []BuildingType{
			{
				ID: "bunkhouse", Name: "Bunkhouse", Kind: BuildingGenerator,
				Cost:           map[ResourceID]float64{"wood": 20, "stone": 10},
				CostMultiplier: 1.5, MaxCount: 4, ConstructionTime: 30,
				Generator: &GeneratorSpec{
					WorkerType: "apprentice", Rooms: 2, RoomCapacity: 3, GenTime: 60,
				},
				Upgrades: []BuildingUpgrade{
					{
						ID: "comfy_mattresses", Name: "Comfy Mattresses",
						Cost: map[ResourceID]float64{"wood": 30}, MaxLevel: 3,
						Effect: Effect{Kind: EffectGenSpeed, Value: 5000},
					},
				},
			},
			{
				ID: "training_hall", Name: "Training Hall", Kind: BuildingTraining,
				Cost:           map[ResourceID]float64{"wood": 40, "stone": 30, "coins": 100},
				CostMultiplier: 2, MaxCount: 2, ConstructionTime: 60,
				UnlockBuilt: 1,
				Training:    &TrainingSpec{Slots: 2},
				Upgrades: []BuildingUpgrade{
					{
						ID: "drill_yard", Name: "Drill Yard",
						Cost: map[ResourceID]float64{"coins": 150}, MaxLevel: 2,
						Effect: Effect{Kind: EffectTrainSlots, Value: 1},
					},
				},
			},
			{
				ID: "warehouse", Name: "Warehouse", Kind: BuildingPassive,
				Cost:           map[ResourceID]float64{"wood": 50, "stone": 50},
				CostMultiplier: 1.8, MaxCount: 3, ConstructionTime: 45,
				UnlockResource: "wood", UnlockAmount: 100,
				Effects: []Effect{
					{Kind: EffectStorageBonus, Value: 100}, // all resources
				},
			},
		},
		Programs: []TrainingProgram{
			{
				ID: "train_laborer", Name: "Laborer Training", Building: "training_hall",
				Input: "apprentice", Output: "laborer",
				Cost: map[ResourceID]float64{"coins": 25}, Time: 45,
			},
			{
				ID: "train_journeyman", Name: "Journeyman Training", Building: "training_hall",
				Input: "laborer", Output: "journeyman",
				Cost: map[ResourceID]float64{"coins": 75, "tools": 1}, Time: 90,
			},
		},
	}

	r, err := Build(f)
	if err != nil {
		// Default tables are compiled in; a validation failure here is a
		// programming error, not runtime content.
		panic(err)
	}
	return r
}
