package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Cases     *CaseHandler
	Audits    *AuditHandler
	Catalogue *CatalogueHandler
	Tasks     *TaskHandler
	Exports   *ExportHandler
	Registry  *RegistryHandler
	Events    *EventHandler
}

// RegisterRoutes mounts the API on r. Reads accept an optional user handle,
// export downloads authenticate through their signed token and every other
// write requires a verified handle.
func RegisterRoutes(r gin.IRouter, h Handlers, requireAuth, optionalAuth gin.HandlerFunc) {
	public := r.Group("", optionalAuth)
	secured := r.Group("", requireAuth)

	if h.Cases != nil {
		public.GET("/cases", h.Cases.List)
		public.GET("/cases/overdue", h.Cases.Overdue)
		public.GET("/cases/:id", h.Cases.Get)
		public.GET("/cases/:id/contacts", h.Cases.ListContacts)
		public.GET("/cases/:id/equality-body-correspondence", h.Cases.ListEqualityBodyCorrespondence)

		secured.POST("/cases", h.Cases.Create)
		secured.PATCH("/cases/:id", h.Cases.Update)
		secured.DELETE("/cases/:id", h.Cases.Delete)
		secured.PATCH("/cases/:id/sections/:section", h.Cases.UpdateSection)
		secured.PUT("/cases/:id/sections/:section/complete", h.Cases.SetCompletion)
		secured.POST("/cases/:id/correspondence", h.Cases.RecordCorrespondence)
		secured.PATCH("/cases/:id/compliance", h.Cases.UpdateCompliance)
		secured.POST("/cases/:id/report", h.Cases.StartReport)
		secured.POST("/cases/:id/contacts", h.Cases.CreateContact)
		secured.PATCH("/cases/:id/contacts/:contactId", h.Cases.UpdateContact)
		secured.DELETE("/cases/:id/contacts/:contactId", h.Cases.DeleteContact)
		secured.POST("/cases/:id/equality-body-correspondence", h.Cases.CreateEqualityBodyCorrespondence)
		secured.PATCH("/cases/:id/equality-body-correspondence/:itemId", h.Cases.UpdateEqualityBodyCorrespondence)
	}

	if h.Events != nil {
		public.GET("/events", h.Events.List)
		public.GET("/cases/:id/events", h.Events.ListForCase)
	}

	if h.Audits != nil {
		public.GET("/cases/:id/audit", h.Audits.GetForCase)
		public.GET("/audits/:id", h.Audits.Get)
		public.GET("/audits/:id/report-content", h.Audits.ReportContent)
		public.GET("/audits/:id/compliance-suggestions", h.Audits.ComplianceSuggestions)
		public.GET("/check-results/:id/notes-history", h.Audits.NotesHistory)

		secured.POST("/cases/:id/audit", h.Audits.Create)
		secured.PATCH("/audits/:id", h.Audits.Update)
		secured.PUT("/audits/:id/sections/:section", h.Audits.CompleteSection)
		secured.POST("/audits/:id/retest", h.Audits.StartRetest)
		secured.POST("/audits/:id/pages", h.Audits.AddPage)
		secured.PATCH("/audits/:id/pages/:pageId", h.Audits.UpdatePage)
		secured.DELETE("/audits/:id/pages/:pageId", h.Audits.DeletePage)
		secured.PUT("/audits/:id/check-results", h.Audits.RecordCheckResult)
		secured.PUT("/audits/:id/retest-results", h.Audits.RecordRetest)
		secured.POST("/audits/:id/statement-pages", h.Audits.AddStatementPage)
		secured.PATCH("/audits/:id/statement-check-results/:resultId", h.Audits.RecordStatementCheckResult)
		secured.PATCH("/audits/:id/retest-statement-check-results/:resultId", h.Audits.RecordRetestStatementCheckResult)
	}

	if h.Catalogue != nil {
		public.GET("/catalogue/wcag", h.Catalogue.ListWcag)
		public.GET("/catalogue/wcag/export", h.Catalogue.ExportWcag)
		public.GET("/catalogue/wcag/:id", h.Catalogue.GetWcag)
		public.GET("/catalogue/statement-checks", h.Catalogue.ListStatementChecks)
		public.GET("/catalogue/statement-checks/export", h.Catalogue.ExportStatementChecks)

		secured.POST("/catalogue/wcag/seed", h.Catalogue.SeedWcag)
		secured.POST("/catalogue/wcag/:id/deprecate", h.Catalogue.DeprecateWcag)
		secured.DELETE("/catalogue/wcag/:id", h.Catalogue.DeleteWcag)
		secured.POST("/catalogue/statement-checks/seed", h.Catalogue.SeedStatementChecks)
		secured.PATCH("/catalogue/statement-checks/:id", h.Catalogue.UpdateStatementCheck)
		secured.DELETE("/catalogue/statement-checks/:id", h.Catalogue.DeleteStatementCheck)
	}

	if h.Tasks != nil {
		secured.GET("/tasks", h.Tasks.List)
		secured.GET("/tasks/due", h.Tasks.Due)
		secured.POST("/tasks", h.Tasks.Create)
		secured.POST("/tasks/:id/read", h.Tasks.MarkRead)
		secured.PUT("/reminders", h.Tasks.SetReminder)
		secured.DELETE("/reminders/:caseId", h.Tasks.DeleteReminder)
	}

	if h.Exports != nil {
		public.GET("/exports", h.Exports.List)
		public.GET("/exports/:id", h.Exports.Get)
		r.GET("/exports/:id/download", h.Exports.Download)

		secured.POST("/exports", h.Exports.Create)
		secured.PUT("/exports/:id/cases/:caseId", h.Exports.SetCaseStatus)
		secured.POST("/exports/:id/mark-exported", h.Exports.MarkExported)
		secured.DELETE("/exports/:id", h.Exports.Delete)
		secured.POST("/exports/:id/render", h.Exports.Render)
	}

	if h.Registry != nil {
		public.GET("/registry/axe-rules", h.Registry.ListRules)
		public.GET("/registry/axe-rules/:id", h.Registry.GetRule)
		public.GET("/registry/tests", h.Registry.ListTests)
		public.GET("/registry/tests/:id", h.Registry.GetTest)
	}
}
