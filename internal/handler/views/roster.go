// Package views renders the HTML pages of the roster.
package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/swimsteps/internal/i18n"
	"github.com/pavelanni/swimsteps/internal/model"
)

// RosterPageData is everything the roster page shows.
type RosterPageData struct {
	Catalog  *model.Catalog
	Students []model.Student // already filtered by Query
	Cohorts  []model.Cohort
	Selected *model.Student
	Query    string
}

// cohortName returns the name of cohort id, or "" if it no longer exists.
func (d RosterPageData) cohortName(id *string) string {
	if id == nil {
		return ""
	}
	for _, c := range d.Cohorts {
		if c.ID == *id {
			return c.Name
		}
	}
	return ""
}

// pageWriter collects the first write error so markup can be emitted without
// checking every call.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) rawf(format string, args ...any) {
	p.raw(fmt.Sprintf(format, args...))
}

// RosterPage renders the read-only roster overview.
func RosterPage(d RosterPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		base := model.BasePathFromContext(ctx)
		t := func(id string) string { return appI18n.T(ctx, id) }

		p.raw(`<!DOCTYPE html><html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		p.text(t("AppTitle"))
		p.raw(`</title></head><body><header><h1>`)
		p.text(t("AppTitle"))
		p.raw(`</h1><a href="`)
		p.text(string(templ.URL(base + "/api/export")))
		p.raw(`">`)
		p.text(t("ExportLink"))
		p.raw(`</a></header><main>`)

		renderStudentList(ctx, p, d, base)
		renderCohorts(ctx, p, d)
		p.raw(`<section class="student">`)
		if d.Selected == nil {
			p.raw(`<p>`)
			p.text(t("SelectStudent"))
			p.raw(`</p>`)
		} else {
			renderStudent(ctx, p, d, *d.Selected)
		}
		p.raw(`</section></main></body></html>`)
		return p.err
	})
}

func renderStudentList(ctx context.Context, p *pageWriter, d RosterPageData, base string) {
	p.raw(`<nav class="students"><h2>`)
	p.text(appI18n.T(ctx, "Students"))
	p.raw(`</h2><form method="get" action="`)
	p.text(string(templ.URL(base + "/")))
	p.raw(`"><input type="search" name="q" value="`)
	p.text(d.Query)
	p.raw(`" placeholder="`)
	p.text(appI18n.T(ctx, "SearchPlaceholder"))
	p.raw(`"><button type="submit">`)
	p.text(appI18n.T(ctx, "Search"))
	p.raw(`</button></form>`)

	if len(d.Students) == 0 {
		p.raw(`<p>`)
		if d.Query == "" {
			p.text(appI18n.T(ctx, "NoStudents"))
		} else {
			p.text(appI18n.Td(ctx, "NoMatches", map[string]any{"Query": d.Query}))
		}
		p.raw(`</p></nav>`)
		return
	}

	p.raw(`<ul>`)
	for _, s := range d.Students {
		q := url.Values{"student": {s.ID}}
		if d.Query != "" {
			q.Set("q", d.Query)
		}
		class := ""
		if d.Selected != nil && d.Selected.ID == s.ID {
			class = ` class="selected"`
		}
		p.rawf(`<li%s><a href="`, class)
		p.text(string(templ.URL(base + "/?" + q.Encode())))
		p.raw(`">`)
		p.text(s.Name)
		p.raw(`</a> <span class="level">`)
		p.text(appI18n.LevelLabel(ctx, s.Level()))
		p.raw(`</span></li>`)
	}
	p.raw(`</ul></nav>`)
}

func renderCohorts(ctx context.Context, p *pageWriter, d RosterPageData) {
	p.raw(`<aside class="cohorts"><h2>`)
	p.text(appI18n.T(ctx, "Cohorts"))
	p.raw(`</h2>`)
	if len(d.Cohorts) == 0 {
		p.raw(`<p>`)
		p.text(appI18n.T(ctx, "NoCohorts"))
		p.raw(`</p></aside>`)
		return
	}
	p.raw(`<ul>`)
	for _, c := range d.Cohorts {
		p.raw(`<li><strong>`)
		p.text(c.Name)
		p.raw(`</strong> `)
		p.text(appI18n.Td(ctx, "CohortDates", map[string]any{
			"Start": c.Start.Format(time.DateOnly),
			"End":   c.End.Format(time.DateOnly),
		}))
		p.raw(`</li>`)
	}
	p.raw(`</ul></aside>`)
}

func renderStudent(ctx context.Context, p *pageWriter, d RosterPageData, s model.Student) {
	t := func(id string) string { return appI18n.T(ctx, id) }

	p.raw(`<h2>`)
	p.text(s.Name)
	p.raw(`</h2><dl><dt>`)
	p.text(t("Level"))
	p.raw(`</dt><dd>`)
	p.text(appI18n.LevelLabel(ctx, s.Level()))
	p.raw(` (`)
	p.text(appI18n.Tp(ctx, "SkillsAchieved", model.AchievedCount(s.Skills)))
	p.raw(`)</dd><dt>`)
	p.text(t("CurrentCohort"))
	p.raw(`</dt><dd>`)
	if name := d.cohortName(s.CurrentCohortID); name != "" {
		p.text(name)
	} else {
		p.text(t("NoCohort"))
	}
	p.raw(`</dd></dl>`)

	p.raw(`<h3>`)
	p.text(t("Skills"))
	p.raw(`</h3>`)
	for _, cat := range []model.Category{model.CategoryBeginner, model.CategoryIntermediate, model.CategoryAdvanced} {
		skills := d.Catalog.SkillsByCategory(cat)
		if len(skills) == 0 {
			continue
		}
		p.raw(`<h4>`)
		p.text(appI18n.CategoryLabel(ctx, cat))
		p.raw(`</h4><ul class="skills">`)
		for _, sk := range skills {
			st := s.Skills[sk.Key]
			p.raw(`<li>`)
			p.text(sk.Name)
			p.raw(`: <span class="status">`)
			p.text(appI18n.StatusLabel(ctx, st.Status))
			p.raw(`</span>`)
			if st.AchievedAt != "" {
				p.raw(` <time>`)
				p.text(st.AchievedAt)
				p.raw(`</time>`)
			}
			if sk.VideoURL != "" {
				p.raw(` <a href="`)
				p.text(string(templ.URL(sk.VideoURL)))
				p.raw(`" target="_blank" rel="noopener">`)
				p.text(t("Video"))
				p.raw(`</a>`)
			}
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
	}

	p.raw(`<h3>`)
	p.text(t("Practice"))
	p.raw(`</h3>`)
	if len(s.Practice) == 0 {
		p.raw(`<p>`)
		p.text(t("NoPractice"))
		p.raw(`</p>`)
	} else {
		p.raw(`<ul class="practice">`)
		for _, item := range s.Practice {
			p.raw(`<li>`)
			p.text(item.Title)
			if item.Due != "" {
				p.raw(` <span class="due">`)
				p.text(appI18n.Td(ctx, "Due", map[string]any{"Date": item.Due}))
				p.raw(`</span>`)
			}
			p.raw(` <span class="status">`)
			p.text(appI18n.PracticeLabel(ctx, item.Status))
			p.raw(`</span>`)
			if item.Notes != "" {
				p.raw(`<p>`)
				p.text(item.Notes)
				p.raw(`</p>`)
			}
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
	}

	p.raw(`<h3>`)
	p.text(t("Notes"))
	p.raw(`</h3>`)
	if len(s.Notes) == 0 {
		p.raw(`<p>`)
		p.text(t("NoNotes"))
		p.raw(`</p>`)
		return
	}
	p.raw(`<ul class="notes">`)
	for _, n := range s.Notes {
		p.raw(`<li><time>`)
		p.text(n.Date)
		p.raw(`</time> `)
		p.text(n.Text)
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
}
