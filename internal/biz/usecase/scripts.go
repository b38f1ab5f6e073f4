package usecase

// Page scripts. Each is a JS function evaluated in the page and returns JSON-serializable data.
// They only collect raw snapshots; classification happens in Go.

const conversationListScript = `() => {
	const selector = [
		'[role="navigation"] [role="listitem"]',
		'[role="navigation"] [role="button"]',
		'[role="listbox"] [role="option"]',
		'[role="list"] [role="listitem"]',
		'[class*="conversation" i]',
		'[class*="chatlist" i] > *',
		'[class*="ChatListItem"]',
	].join(',');
	const classOf = (el) => typeof el.className === 'string' ? el.className : '';
	const out = [];
	document.querySelectorAll(selector).forEach((el) => {
		const classes = [classOf(el)];
		el.querySelectorAll('[class]').forEach((c) => classes.push(classOf(c)));
		const styled = el.querySelector('span, p, div') || el;
		const weight = parseInt(window.getComputedStyle(styled).fontWeight, 10);
		out.push({
			text: (el.innerText || '').trim(),
			classNames: classes.join(' '),
			fontWeight: isNaN(weight) ? 400 : weight,
		});
	});
	return out;
}`

const messageListScript = `() => {
	const region = document.querySelector('main, [role="main"]') || document.body;
	const box = region.getBoundingClientRect();
	const selector = 'p, span, li, [class*="message" i], [class*="bubble" i], [class*="text" i]';
	const classOf = (el) => el && typeof el.className === 'string' ? el.className : '';
	const out = [];
	region.querySelectorAll(selector).forEach((el) => {
		if (el.querySelector(selector)) return;
		const rect = el.getBoundingClientRect();
		const parent = el.parentElement || el;
		out.push({
			text: (el.innerText || '').trim(),
			className: classOf(el),
			parentClassName: classOf(parent),
			top: rect.top,
			parentLeft: parent.getBoundingClientRect().left,
			regionLeft: box.left,
			regionWidth: box.width,
		});
	});
	return out;
}`

// findTextPrefixScript scans every node for one whose text starts with the name
// and whose box is plausibly clickable
const findTextPrefixScript = `(name) => {
	for (const el of document.querySelectorAll('body *')) {
		const text = (el.innerText || '').trim();
		if (!text.startsWith(name)) continue;
		const r = el.getBoundingClientRect();
		if (r.width < 50 || r.height < 20 || r.height > 200) continue;
		return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
	}
	return {found: false};
}`

// findChatInputScript locates the message input in the main region, falling back
// to a positional search that avoids the left-hand search box
const findChatInputScript = `() => {
	const inputs = 'textarea, [contenteditable="true"], input[type="text"], [role="textbox"]';
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	const center = (el) => {
		const r = el.getBoundingClientRect();
		return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
	};
	const region = document.querySelector('main, [role="main"]');
	if (region) {
		for (const el of region.querySelectorAll(inputs)) {
			if (visible(el)) return center(el);
		}
	}
	const h = window.innerHeight;
	for (const el of document.querySelectorAll(inputs)) {
		const r = el.getBoundingClientRect();
		if (r.left > 300 && r.top > h * 0.6 && r.width > 200) return center(el);
	}
	return {found: false};
}`

// findBackButtonScript returns the center of a visible back/close control
const findBackButtonScript = `() => {
	const selector = '[aria-label*="back" i], [aria-label*="close" i], [title*="back" i], button[class*="back" i]';
	for (const el of document.querySelectorAll(selector)) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) continue;
		return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
	}
	return {found: false};
}`

// listRegionPointScript returns a point inside the conversation list, away from any item text
const listRegionPointScript = `() => {
	const nav = document.querySelector('[role="navigation"], [role="listbox"], nav');
	if (!nav) return {found: false};
	const r = nav.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) return {found: false};
	return {found: true, x: r.left + Math.min(20, r.width / 2), y: r.top + Math.min(20, r.height / 2)};
}`

// loggedInScript reports whether the page shows the chat list or a chat input
const loggedInScript = `() => {
	return !!document.querySelector('[role="navigation"] [role="listitem"], [role="listbox"], [class*="conversation" i], textarea, [contenteditable="true"]');
}`
