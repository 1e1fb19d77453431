package menu

import "github.com/cabildo-gob/cabildo/internal/authz"

// Console returns the static navigation tree of the administrative console.
func Console() []Node {
	return []Node{
		{Label: "Inicio", Path: "/"},
		{
			Label: "Tramites",
			Children: []Node{
				{
					Label:       "Permisos",
					Path:        "/permisos",
					Permissions: []authz.Permission{authz.Perm("permisos", "view")},
				},
				{
					Label:       "Multas",
					Path:        "/multas",
					Permissions: []authz.Permission{authz.Perm("multas", "view")},
				},
				{
					Label:       "Vehiculos",
					Path:        "/vehiculos",
					Permissions: []authz.Permission{authz.Perm("vehiculos", "view")},
				},
			},
		},
		{
			Label:       "Pagos",
			Path:        "/pagos",
			Permissions: []authz.Permission{authz.Perm("pagos", "view")},
		},
		{
			Label: "Operativo",
			Levels: []authz.Level{
				authz.LevelMunicipal, authz.LevelEstatal, authz.LevelSuperAdmin,
			},
			Children: []Node{
				{
					Label:       "Agentes",
					Path:        "/agentes",
					Permissions: []authz.Permission{authz.Perm("agentes", "view")},
				},
				{
					Label:       "Patrullas",
					Path:        "/patrullas",
					Permissions: []authz.Permission{authz.Perm("patrullas", "view")},
				},
			},
		},
		{
			Label:  "Administracion",
			Levels: []authz.Level{authz.LevelEstatal, authz.LevelSuperAdmin},
			Children: []Node{
				{Label: "Usuarios", Path: "/usuarios"},
				{
					Label:  "Roles",
					Path:   "/roles",
					Levels: []authz.Level{authz.LevelEstatal, authz.LevelSuperAdmin},
				},
				{
					Label:  "Permisos del sistema",
					Path:   "/permisos-sistema",
					Levels: []authz.Level{authz.LevelSuperAdmin},
				},
			},
		},
	}
}
