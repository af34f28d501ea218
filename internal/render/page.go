package render

import (
	"html/template"
	"io"
)

// PlayerView is the modal state a page is rendered with.
type PlayerView struct {
	Open     bool   `json:"open"`
	Title    string `json:"title"`
	Src      string `json:"src"`
	Paused   bool   `json:"paused"`
	NeedsTap bool   `json:"needs_tap"`
}

// Page is everything the page shell needs.
type Page struct {
	SiteTitle   string
	GateEnabled bool
	ShowAuth    bool
	AuthErr     string
	Query       string
	Grid        Grid
	Player      PlayerView
}

// Renderer executes the page shell template.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer parses the page shell.
func NewRenderer() *Renderer {
	tpl := template.Must(template.New("page").Funcs(template.FuncMap{
		"raw": func(s string) template.HTML { return template.HTML(s) },
	}).Parse(pageTpl))
	return &Renderer{tpl: tpl}
}

// Page writes the full document for p.
func (r *Renderer) Page(w io.Writer, p Page) error {
	return r.tpl.Execute(w, p)
}

const pageTpl = `<!doctype html>
<html lang="en">
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.SiteTitle}}</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto;max-width:1200px;margin:0 auto;padding:1rem;background:#f8fafc;color:#0f172a}
header{display:flex;justify-content:space-between;align-items:center;gap:12px;margin-bottom:1rem}
.search input{width:280px;padding:8px 10px;border:1px solid #cbd5e1;border-radius:8px}
.meta{color:#64748b;font-size:.9rem}
.auth{max-width:340px;margin:4rem auto;display:flex;flex-direction:column;gap:8px}
.auth input{padding:8px 10px;border:1px solid #cbd5e1;border-radius:8px}
.auth .err{color:#b91c1c}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:14px}
.card{position:relative;aspect-ratio:16/9;border-radius:12px;overflow:hidden;cursor:pointer;outline:none}
.card:focus{box-shadow:0 0 0 3px #2563eb}
.card__bg{position:absolute;inset:0;background-size:cover;background-position:center}
.card__shade{position:absolute;inset:0;background:linear-gradient(180deg,transparent 40%,rgba(0,0,0,.65))}
.card__body{position:absolute;left:10px;right:10px;bottom:8px;color:#fff}
.card__title{font-weight:600}
.card__sub{font-size:.8rem;opacity:.85}
.empty{color:#64748b;margin-top:1rem}
.modal{position:fixed;inset:0;display:none;align-items:center;justify-content:center}
.modal[aria-hidden="false"]{display:flex}
.modal__backdrop{position:absolute;inset:0;background:rgba(15,23,42,.7)}
.modal__panel{position:relative;background:#0f172a;border-radius:12px;padding:12px;width:min(960px,94vw)}
.modal__head{display:flex;justify-content:space-between;color:#fff;margin-bottom:8px}
.modal video{width:100%;max-height:75vh;background:#000}
.tap{position:absolute;inset:0;display:flex;align-items:center;justify-content:center;color:#fff;font-size:1.2rem;background:rgba(0,0,0,.35);cursor:pointer}
</style>
<header>
  <strong>{{.SiteTitle}}</strong>
  <div class="search" id="searchBar"{{if .ShowAuth}} hidden{{end}}>
    <input id="q" type="search" placeholder="Search titles" value="{{.Query}}" autocomplete="off" />
    <span class="meta" id="meta">{{.Grid.Count}}</span>
  </div>
  {{if and .GateEnabled (not .ShowAuth)}}<form method="post" action="/logout"><button type="submit">Log out</button></form>{{end}}
</header>

<section id="authView"{{if not .ShowAuth}} hidden{{end}}>
  <form class="auth" method="post" action="/login">
    <input id="user" name="user" placeholder="Username" autocomplete="username" {{if .ShowAuth}}autofocus{{end}} />
    <input id="pass" name="pass" type="password" placeholder="Password" autocomplete="current-password" />
    <button id="loginBtn" type="submit">Log in</button>
    <div class="err" id="authErr"{{if not .AuthErr}} hidden{{end}}>{{.AuthErr}}</div>
  </form>
</section>

<main id="appView"{{if .ShowAuth}} hidden{{end}}>
  <div class="grid" id="grid">{{raw .Grid.HTML}}</div>
  <div class="empty" id="empty"{{if .Grid.EmptyHidden}} hidden{{end}}>{{.Grid.EmptyText}}</div>
</main>

<div class="modal" id="modal" aria-hidden="{{if .Player.Open}}false{{else}}true{{end}}">
  <div class="modal__backdrop" data-close="1"></div>
  <div class="modal__panel" role="dialog" aria-modal="true" aria-labelledby="modalTitle">
    <div class="modal__head">
      <span id="modalTitle">{{.Player.Title}}</span>
      <button type="button" data-close="1" aria-label="Close">✕</button>
    </div>
    <video id="player" controls playsinline preload="metadata"{{if .Player.Src}} src="{{.Player.Src}}"{{end}}></video>
    <div class="tap" id="tapToPlay"{{if not .Player.NeedsTap}} hidden{{end}}>▶ Tap to play</div>
  </div>
</div>

<script>
(function(){
  var $ = function(sel){ return document.querySelector(sel); };
  var grid = $('#grid'), q = $('#q'), meta = $('#meta'), empty = $('#empty');
  var modal = $('#modal'), modalTitle = $('#modalTitle'), player = $('#player'), tap = $('#tapToPlay');

  function post(url, data){
    var body = new URLSearchParams(data || {});
    return fetch(url, { method: 'POST', body: body, cache: 'no-store', credentials: 'same-origin' })
      .then(function(r){ if (!r.ok) throw new Error(url + ' (' + r.status + ')'); return r.json(); });
  }
  function teardown(){
    player.pause();
    player.removeAttribute('src');
    player.load();
  }
  function applyPlayer(st){
    modalTitle.textContent = st.title || '';
    teardown();
    tap.hidden = true;
    if (!st.open) {
      modal.setAttribute('aria-hidden', 'true');
      document.body.style.overflow = '';
      return;
    }
    player.src = st.src;
    modal.setAttribute('aria-hidden', 'false');
    document.body.style.overflow = 'hidden';
    player.play().catch(function(){
      tap.hidden = false;
      post('/player/blocked').catch(function(){});
    });
  }
  function openFromCard(card){
    post('/player/open', {
      video: card.getAttribute('data-video') || '',
      title: card.getAttribute('data-title') || ''
    }).then(applyPlayer).catch(function(e){ console.error(e); });
  }
  function closeModal(){
    teardown();
    modal.setAttribute('aria-hidden', 'true');
    document.body.style.overflow = '';
    post('/player/close').then(applyPlayer).catch(function(e){ console.error(e); });
  }
  if (grid) {
    grid.addEventListener('click', function(e){
      var card = e.target.closest('.card');
      if (card) openFromCard(card);
    });
    grid.addEventListener('keydown', function(e){
      if (e.key !== 'Enter' && e.key !== ' ') return;
      var card = e.target.closest('.card');
      if (card) { e.preventDefault(); openFromCard(card); }
    });
  }
  if (q) {
    var seq = 0, inflight = null;
    q.addEventListener('input', function(){
      var n = ++seq;
      if (inflight) inflight.abort();
      inflight = window.AbortController ? new AbortController() : null;
      fetch('/grid?q=' + encodeURIComponent(q.value) + '&seq=' + n,
        { cache: 'no-store', credentials: 'same-origin', signal: inflight ? inflight.signal : undefined })
        .then(function(r){ if (!r.ok) throw new Error('grid (' + r.status + ')'); return r.json(); })
        .then(function(g){
          if (n !== seq || g.stale) return;
          grid.innerHTML = g.html;
          meta.textContent = g.count;
          empty.hidden = g.empty_hidden;
          empty.textContent = g.empty_text;
        })
        .catch(function(e){ if (e.name !== 'AbortError') console.error(e); });
    });
  }
  modal.addEventListener('click', function(e){
    var t = e.target;
    if (t && t.getAttribute && t.getAttribute('data-close') === '1') closeModal();
  });
  window.addEventListener('keydown', function(e){
    if (e.key === 'Escape' && modal.getAttribute('aria-hidden') === 'false') closeModal();
  });
  tap.addEventListener('click', function(){
    tap.hidden = true;
    player.play().catch(function(){ tap.hidden = false; });
  });
  if (modal.getAttribute('aria-hidden') === 'false' && player.getAttribute('src')) {
    // restored from saved state: wait for a tap
    document.body.style.overflow = 'hidden';
    tap.hidden = false;
  }
})();
</script>
`
