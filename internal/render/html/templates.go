package html

// documentTemplates 是三种布局共用的模板集合。
// 每个布局是一个具名模板（modern / classic / artistic），共享 head 与各区块的局部模板。
// 注意：这里使用 text/template，用户内容按原样插入，不做转义（见 WithSanitizer）。
const documentTemplates = `
{{define "document"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Content.Name}}{{if .Category}} | {{.Category}}{{end}}</title>
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Poppins:wght@300;400;600;700&family=Playfair+Display:wght@400;700&display=swap">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
    <style>
{{template "stylesheet" .}}
    </style>
</head>
<body class="template-{{.Template}}">
{{template "body" .}}
</body>
</html>
{{end}}

{{define "stylesheet"}}
        :root {
            --primary: {{.Theme.Primary}};
            --accent: {{.Theme.Accent}};
            --background: {{.Theme.Background}};
            --ink: #f5f5f7;
            --muted: #b8b8c7;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: 'Poppins', sans-serif;
            background: var(--background);
            color: var(--ink);
            line-height: 1.6;
        }
        a { color: var(--accent); text-decoration: none; }
        h1, h2 { line-height: 1.2; }
        .section { margin-bottom: 2.5rem; }
        .section h2 {
            color: var(--accent);
            font-size: 1.5rem;
            margin-bottom: 1rem;
        }
        .section-body { white-space: pre-line; color: var(--muted); }
        .avatar {
            width: 140px;
            height: 140px;
            border-radius: 50%;
            object-fit: cover;
            border: 4px solid var(--accent);
        }
        .identity .title { color: var(--accent); font-size: 1.2rem; text-transform: capitalize; }
        .identity .meta { color: var(--muted); font-size: 0.95rem; }
        .identity .meta span + span::before { content: " · "; }
        .skills { display: flex; flex-wrap: wrap; gap: 0.6rem; }
        .skill-chip {
            display: inline-block;
            padding: 0.35rem 0.9rem;
            border-radius: 999px;
            background: var(--primary);
            color: #ffffff;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .social-links { display: flex; gap: 1rem; font-size: 1.5rem; margin-bottom: 1rem; }
        .social-link:hover { color: var(--primary); }
        .contact-line { display: block; margin-bottom: 0.4rem; }
        footer {
            text-align: center;
            padding: 2rem 1rem;
            color: var(--muted);
            font-size: 0.85rem;
            border-top: 1px solid rgba(255, 255, 255, 0.08);
        }

        /* modern */
        .template-modern .hero {
            background: var(--primary);
            padding: 4rem 2rem 3rem;
            display: flex;
            align-items: center;
            gap: 2rem;
        }
        .template-modern .hero h1 { font-size: 3rem; font-weight: 700; }
        .template-modern .hero .title { color: var(--accent); }
        .template-modern .hero .meta { color: rgba(255, 255, 255, 0.85); }
        .template-modern .columns {
            display: grid;
            grid-template-columns: 2fr 1fr;
            gap: 3rem;
            max-width: 1100px;
            margin: 3rem auto;
            padding: 0 2rem;
        }
        .template-modern aside .section {
            background: rgba(255, 255, 255, 0.04);
            border-left: 4px solid var(--accent);
            padding: 1.25rem;
            border-radius: 8px;
        }
        @media (max-width: 800px) {
            .template-modern .columns { grid-template-columns: 1fr; }
            .template-modern .hero { flex-direction: column; text-align: center; }
        }

        /* classic */
        .template-classic { font-family: 'Playfair Display', serif; }
        .template-classic header {
            text-align: center;
            padding: 4rem 1rem 2rem;
            border-bottom: 3px double var(--accent);
        }
        .template-classic header h1 { font-size: 2.75rem; color: var(--primary); }
        .template-classic header .avatar { margin-bottom: 1rem; }
        .template-classic main { max-width: 760px; margin: 3rem auto; padding: 0 1.5rem; }
        .template-classic .section h2 {
            color: var(--primary);
            border-bottom: 1px solid var(--accent);
            padding-bottom: 0.4rem;
        }
        .template-classic .skills { justify-content: center; }

        /* artistic */
        .template-artistic {
            background: linear-gradient(135deg, var(--primary) 0%, var(--background) 55%, var(--accent) 100%);
            background-attachment: fixed;
            min-height: 100vh;
        }
        .template-artistic .canvas { max-width: 960px; margin: 0 auto; padding: 4rem 1.5rem; }
        .template-artistic header { text-align: center; margin-bottom: 3rem; }
        .template-artistic header h1 {
            font-family: 'Playfair Display', serif;
            font-size: 3.5rem;
            letter-spacing: 0.05em;
            text-shadow: 4px 4px 0 var(--primary);
        }
        .template-artistic .card {
            background: rgba(10, 10, 18, 0.72);
            backdrop-filter: blur(6px);
            border: 1px solid rgba(255, 255, 255, 0.12);
            border-radius: 24px;
            padding: 2rem;
            margin-bottom: 2rem;
            transform: rotate(-0.4deg);
        }
        .template-artistic .card:nth-child(even) { transform: rotate(0.4deg); }
        .template-artistic .skill-chip { background: var(--accent); color: var(--background); }
{{end}}

{{define "avatar"}}{{if .Content.ProfileImageURL}}<img class="avatar" src="{{.Content.ProfileImageURL}}" alt="{{.Content.Name}}">{{end}}{{end}}

{{define "identity"}}
            <div class="identity">
                <h1>{{.Content.Name}}</h1>
                {{if .Category}}<p class="title">{{.Category}}</p>{{end}}
                {{if or .Content.ExperienceLevel .Location}}<p class="meta">{{if .Content.ExperienceLevel}}<span>{{.Content.ExperienceLevel}}</span>{{end}}{{if .Location}}<span><i class="fas fa-location-dot"></i> {{.Location}}</span>{{end}}</p>{{end}}
            </div>
{{end}}

{{define "about"}}
            <section class="section about">
                <h2>About Me</h2>
                <div class="section-body">{{.Content.AboutMe}}</div>
            </section>
{{end}}

{{define "experience"}}{{if .Content.Jobs}}
            <section class="section experience">
                <h2>Experience</h2>
                <div class="section-body">{{.Content.Jobs}}</div>
            </section>
{{end}}{{end}}

{{define "skills"}}{{if .Content.Skills}}
            <section class="section skills-block">
                <h2>Skills</h2>
                <div class="skills">{{range .Content.Skills}}
                    <span class="skill-chip">{{.}}</span>{{end}}
                </div>
            </section>
{{end}}{{end}}

{{define "services"}}{{if .Content.Services}}
            <section class="section services">
                <h2>Services</h2>
                <div class="section-body">{{.Content.Services}}</div>
            </section>
{{end}}{{end}}

{{define "testimonials"}}{{if .Content.Testimonials}}
            <section class="section testimonials">
                <h2>Testimonials</h2>
                <blockquote class="section-body">{{.Content.Testimonials}}</blockquote>
            </section>
{{end}}{{end}}

{{define "contact"}}
            <section class="section contact">
                <h2>Contact</h2>
                {{if .Social}}<div class="social-links">{{range .Social}}
                    <a class="social-link social-{{.Platform}}" href="{{.URL}}" target="_blank" rel="noopener noreferrer" aria-label="{{.Label}}"><i class="{{.Icon}}"></i></a>{{end}}
                </div>{{end}}
                <a class="contact-line" href="mailto:{{.Content.Email}}"><i class="fas fa-envelope"></i> {{.Content.Email}}</a>
                {{if .Content.Phone}}<a class="contact-line" href="tel:{{.Content.Phone}}"><i class="fas fa-phone"></i> {{.Content.Phone}}</a>{{end}}
            </section>
{{end}}

{{define "footer"}}
    <footer>
        <p>&copy; {{.Year}} {{.Content.Name}}. All rights reserved.</p>
    </footer>
{{end}}

{{define "modern"}}
    <header class="hero">
        {{template "avatar" .}}
        {{template "identity" .}}
    </header>
    <div class="columns">
        <main>
            {{template "about" .}}
            {{template "experience" .}}
            {{template "services" .}}
            {{template "testimonials" .}}
        </main>
        <aside>
            {{template "skills" .}}
            {{template "contact" .}}
        </aside>
    </div>
    {{template "footer" .}}
{{end}}

{{define "classic"}}
    <header>
        {{template "avatar" .}}
        {{template "identity" .}}
    </header>
    <main>
        {{template "about" .}}
        {{template "experience" .}}
        {{template "skills" .}}
        {{template "services" .}}
        {{template "testimonials" .}}
        {{template "contact" .}}
    </main>
    {{template "footer" .}}
{{end}}

{{define "artistic"}}
    <div class="canvas">
        <header>
            {{template "avatar" .}}
            {{template "identity" .}}
        </header>
        <div class="card">{{template "about" .}}</div>
        {{if .Content.Jobs}}<div class="card">{{template "experience" .}}</div>{{end}}
        {{if .Content.Skills}}<div class="card">{{template "skills" .}}</div>{{end}}
        {{if .Content.Services}}<div class="card">{{template "services" .}}</div>{{end}}
        {{if .Content.Testimonials}}<div class="card">{{template "testimonials" .}}</div>{{end}}
        <div class="card">{{template "contact" .}}</div>
    </div>
    {{template "footer" .}}
{{end}}
`
