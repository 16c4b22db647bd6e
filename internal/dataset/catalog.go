package dataset

// Catalog lists every query served by the API, in registration order.
var Catalog = []Query{
	{
		Name:    "events-hourly",
		Path:    "/events/hourly",
		Summary: "Hourly events for the last week",
		SQL: `
			SELECT date, hour, events
			FROM public.hourly_events
			ORDER BY date, hour
			LIMIT 168`,
	},
	{
		Name:    "events-daily",
		Path:    "/events/daily",
		Summary: "Daily event totals",
		SQL: `
			SELECT date, SUM(events) AS events
			FROM public.hourly_events
			GROUP BY date
			ORDER BY date
			LIMIT 7`,
	},
	{
		Name:    "stats-hourly",
		Path:    "/stats/hourly",
		Summary: "Hourly impressions, clicks and revenue",
		SQL: `
			SELECT date, hour, impressions, clicks, revenue
			FROM public.hourly_stats
			ORDER BY date, hour
			LIMIT 168`,
	},
	{
		Name:    "stats-daily",
		Path:    "/stats/daily",
		Summary: "Daily stat totals for a single point of interest",
		SQL: `
			SELECT date,
				SUM(impressions) AS impressions,
				SUM(clicks) AS clicks,
				SUM(revenue) AS revenue
			FROM public.hourly_stats
			WHERE poi_id = 3
			GROUP BY date
			ORDER BY date
			LIMIT 7`,
	},
	{
		Name:    "stats",
		Path:    "/stats",
		Summary: "Raw hourly stats",
		SQL: `
			SELECT *
			FROM public.hourly_stats
			ORDER BY date
			LIMIT 100`,
	},
	{
		Name:    "poi",
		Path:    "/poi",
		Summary: "Points of interest",
		SQL: `
			SELECT *
			FROM public.poi`,
	},
	{
		Name:    "poi-data",
		Path:    "/poi_data",
		Summary: "Per point of interest events and stats by date",
		SQL: `
			SELECT
				public.poi.poi_id AS poi_id,
				SUM(DISTINCT e.events) AS events,
				SUM(DISTINCT s.impressions) AS impressions,
				SUM(DISTINCT s.clicks) AS clicks,
				SUM(DISTINCT s.revenue) AS revenue,
				public.poi.name AS name,
				public.poi.lat AS lat,
				public.poi.lon AS lon,
				e.date
			FROM public.poi
			LEFT JOIN public.hourly_events e ON e.poi_id = public.poi.poi_id
			LEFT JOIN public.hourly_stats s ON s.poi_id = public.poi.poi_id AND s.date = e.date
			GROUP BY e.date, public.poi.name, public.poi.poi_id, public.poi.lat, public.poi.lon
			LIMIT 100`,
	},
	{
		Name:    "map-data",
		Path:    "/map_data",
		Summary: "Per point of interest totals with coordinates",
		SQL: `
			SELECT
				SUM(DISTINCT e.events) AS events,
				SUM(DISTINCT s.impressions) AS impressions,
				SUM(DISTINCT s.clicks) AS clicks,
				SUM(DISTINCT s.revenue) AS revenue,
				public.poi.name AS name,
				public.poi.lat AS lat,
				public.poi.lon AS lon
			FROM public.poi
			LEFT JOIN public.hourly_events e ON e.poi_id = public.poi.poi_id
			LEFT JOIN public.hourly_stats s ON s.poi_id = public.poi.poi_id AND s.date = e.date
			GROUP BY public.poi.name, public.poi.lat, public.poi.lon`,
	},
	{
		Name:    "data-hourly",
		Path:    "/data/hourly",
		Summary: "Hourly events joined with hourly stats",
		SQL: `
			SELECT *
			FROM public.hourly_events a
			LEFT JOIN public.hourly_stats b ON a.date = b.date AND a.hour = b.hour
			ORDER BY a.date
			LIMIT 168`,
	},
	{
		Name:    "data-daily",
		Path:    "/data/daily",
		Summary: "Daily events and stats totals",
		SQL: `
			SELECT
				a.date,
				SUM(DISTINCT impressions) AS impressions,
				SUM(DISTINCT clicks) AS clicks,
				SUM(DISTINCT revenue) AS revenue,
				SUM(DISTINCT events) AS events
			FROM public.hourly_events a
			LEFT JOIN public.hourly_stats b ON a.date = b.date
			GROUP BY a.date
			ORDER BY a.date
			LIMIT 7`,
	},
}

